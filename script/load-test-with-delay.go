package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"slices"
	"strings"
	"sync"
	"text/tabwriter"
	"time"
)

// PostingRequest is the body of recharge, payment and refund requests
type PostingRequest struct {
	Amount    string `json:"amount"`
	Reference string `json:"reference,omitempty"`
}

// Reconciliation is the part of the reconciliation response the check reads
type Reconciliation struct {
	Balance    string `json:"balance"`
	Drift      string `json:"drift"`
	EntryCount int64  `json:"entryCount"`
	Consistent bool   `json:"consistent"`
}

// Scenario builds one request against the ledger. Build returns the method,
// path, body and whether the internal token is needed. Rejected lists the
// statuses that are valid business outcomes rather than failures.
type Scenario struct {
	Name     string
	Build    func(userID, target int, reference string) (string, string, any, bool)
	Rejected []int
}

func voteScenario(name, kind, field string) Scenario {
	return Scenario{
		Name: name,
		Build: func(userID, target int, reference string) (string, string, any, bool) {
			return http.MethodPost, fmt.Sprintf("/api/v1/votes/%s/%d", kind, target), map[string]any{field: true}, false
		},
	}
}

func postingScenario(name, amount string, path func(userID int) string, internal bool, rejected ...int) Scenario {
	return Scenario{
		Name: name,
		Build: func(userID, target int, reference string) (string, string, any, bool) {
			return http.MethodPost, path(userID), PostingRequest{Amount: amount, Reference: reference}, internal
		},
		Rejected: rejected,
	}
}

func walletPath(action string) func(int) string {
	return func(userID int) string {
		return fmt.Sprintf("/internal/v1/wallets/%d/%s", userID, action)
	}
}

func scenarios() []Scenario {
	return []Scenario{
		voteScenario("upvote post", "post", "upvote_post"),
		voteScenario("downvote post", "post", "downvote_post"),
		voteScenario("upvote comment", "comment", "upvote_comment"),
		voteScenario("downvote review", "review", "downvote_review"),
		postingScenario("recharge", "50.00", func(int) string { return "/api/v1/wallet/recharge" }, false),
		postingScenario("payment", "30.00", walletPath("payments"), true, http.StatusUnprocessableEntity),
		postingScenario("refund", "5.00", walletPath("refunds"), true),
	}
}

// outcome is the result of a single request
type outcome struct {
	scenario string
	latency  time.Duration
	status   int
	err      error
	rejected bool
}

// tally aggregates the outcomes of one scenario
type tally struct {
	ok        int
	rejected  int
	failed    int
	latencies []time.Duration
	statuses  map[int]int
}

func (t *tally) add(o outcome) {
	t.latencies = append(t.latencies, o.latency)
	if o.status != 0 {
		t.statuses[o.status]++
	}
	switch {
	case o.err != nil:
		t.failed++
	case o.rejected:
		t.rejected++
	default:
		t.ok++
	}
}

// percentile expects latencies to be sorted
func (t *tally) percentile(p int) time.Duration {
	if len(t.latencies) == 0 {
		return 0
	}
	return t.latencies[(len(t.latencies)-1)*p/100]
}

// runner fires requests at the service from a fixed set of users
type runner struct {
	client        *http.Client
	baseURL       string
	internalToken string
	delay         time.Duration
	targets       int
	userIDs       []int
	scenarios     []Scenario
}

func (r *runner) do(method, path string, body any, userID int, internal bool) (*http.Response, error) {
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequest(method, r.baseURL+path, &payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", fmt.Sprint(userID))
	if internal {
		req.Header.Set("X-Internal-Token", r.internalToken)
	}
	return r.client.Do(req)
}

func (r *runner) work(worker int, jobs <-chan int, out chan<- outcome) {
	for job := range jobs {
		if r.delay > 0 {
			time.Sleep(r.delay)
		}

		scenario := r.scenarios[rand.IntN(len(r.scenarios))]
		userID := r.userIDs[rand.IntN(len(r.userIDs))]
		reference := fmt.Sprintf("load-%d-%d-%d", worker, job, rand.IntN(1_000_000))
		method, path, body, internal := scenario.Build(userID, rand.IntN(r.targets)+1, reference)

		start := time.Now()
		resp, err := r.do(method, path, body, userID, internal)
		o := outcome{scenario: scenario.Name, latency: time.Since(start), err: err}
		if err == nil {
			o.status = resp.StatusCode
			resp.Body.Close()
			switch {
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
			case slices.Contains(scenario.Rejected, resp.StatusCode):
				o.rejected = true
			default:
				o.err = fmt.Errorf("HTTP %d", resp.StatusCode)
			}
		}
		out <- o
	}
}

// reconcile asks the service to check each user's wallet against its entries.
// Users that never got a wallet are left out.
func (r *runner) reconcile() (map[int]Reconciliation, error) {
	reports := make(map[int]Reconciliation, len(r.userIDs))
	for _, id := range r.userIDs {
		resp, err := r.do(http.MethodGet, fmt.Sprintf("/internal/v1/wallets/%d/reconciliation", id), nil, id, true)
		if err != nil {
			return nil, err
		}
		var report Reconciliation
		err = json.NewDecoder(resp.Body).Decode(&report)
		resp.Body.Close()
		switch {
		case resp.StatusCode == http.StatusNotFound:
			continue
		case resp.StatusCode != http.StatusOK:
			return nil, fmt.Errorf("user %d: HTTP %d", id, resp.StatusCode)
		case err != nil:
			return nil, fmt.Errorf("user %d: %w", id, err)
		}
		reports[id] = report
	}
	return reports, nil
}

func parseUserIDs(raw string) []int {
	var ids []int
	for _, part := range strings.Split(raw, ",") {
		var id int
		if _, err := fmt.Sscanf(strings.TrimSpace(part), "%d", &id); err == nil && id > 0 {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return []int{1}
	}
	return ids
}

func main() {
	concurrency := flag.Int("c", 5, "Number of concurrent goroutines")
	totalRequests := flag.Int("n", 100, "Total number of requests to make")
	userIDs := flag.String("u", "1,2,3", "Comma-separated list of user IDs to distribute load across")
	targets := flag.Int("targets", 3, "Number of post, comment and review IDs to vote on")
	baseURL := flag.String("url", "http://localhost:8080", "Base URL for the API")
	internalToken := flag.String("token", "dev-internal-token", "X-Internal-Token for internal endpoints")
	delayMs := flag.Int("delay", 100, "Delay between requests in milliseconds")
	verify := flag.Bool("verify", true, "Reconcile every user's wallet after the run")
	flag.Parse()

	r := &runner{
		client:        &http.Client{Timeout: 10 * time.Second},
		baseURL:       strings.TrimRight(*baseURL, "/"),
		internalToken: *internalToken,
		delay:         time.Duration(*delayMs) * time.Millisecond,
		targets:       max(*targets, 1),
		userIDs:       parseUserIDs(*userIDs),
		scenarios:     scenarios(),
	}

	fmt.Printf("Load testing %s: %d requests, %d goroutines, users %v, %d targets per kind\n",
		r.baseURL, *totalRequests, *concurrency, r.userIDs, r.targets)

	jobs := make(chan int)
	out := make(chan outcome, *concurrency)

	var wg sync.WaitGroup
	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.work(i, jobs, out)
		}()
	}
	go func() {
		for i := 0; i < *totalRequests; i++ {
			jobs <- i
		}
		close(jobs)
	}()
	go func() {
		wg.Wait()
		close(out)
	}()

	tallies := make(map[string]*tally)
	errorCounts := make(map[string]int)
	start := time.Now()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	done := 0
	for running := true; running; {
		select {
		case o, ok := <-out:
			if !ok {
				running = false
				continue
			}
			t, found := tallies[o.scenario]
			if !found {
				t = &tally{statuses: make(map[int]int)}
				tallies[o.scenario] = t
			}
			t.add(o)
			if o.err != nil {
				errorCounts[o.scenario+": "+o.err.Error()]++
			}
			done++
		case <-ticker.C:
			fmt.Printf("Progress: %d/%d\n", done, *totalRequests)
		}
	}

	failed := report(tallies, errorCounts, time.Since(start))

	if *verify {
		reports, err := r.reconcile()
		if err != nil {
			fmt.Printf("Reconciliation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("\nWALLET RECONCILIATION")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "user\tbalance\tentries\tdrift\tconsistent")
		for _, id := range r.userIDs {
			rep, ok := reports[id]
			if !ok {
				fmt.Fprintf(w, "%d\t-\t0\t-\tno wallet\n", id)
				continue
			}
			fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%t\n", id, rep.Balance, rep.EntryCount, rep.Drift, rep.Consistent)
			if !rep.Consistent {
				failed++
			}
		}
		w.Flush()
	}

	if failed > 0 {
		fmt.Printf("\n❌ %d unexpected failures\n", failed)
		os.Exit(1)
	}
	fmt.Println("\n✅ No unexpected failures")
}

// report prints per-scenario results and returns the number of failures
func report(tallies map[string]*tally, errorCounts map[string]int, elapsed time.Duration) int {
	names := make([]string, 0, len(tallies))
	for name := range tallies {
		names = append(names, name)
	}
	slices.Sort(names)

	var total, answered, failed int
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nscenario\trequests\tok\trejected\tfailed\tp50\tp95\tp99\tstatuses")
	for _, name := range names {
		t := tallies[name]
		slices.Sort(t.latencies)

		codes := make([]int, 0, len(t.statuses))
		for code := range t.statuses {
			codes = append(codes, code)
		}
		slices.Sort(codes)
		statuses := make([]string, 0, len(codes))
		for _, code := range codes {
			statuses = append(statuses, fmt.Sprintf("%d×%d", code, t.statuses[code]))
		}

		n := t.ok + t.rejected + t.failed
		total += n
		answered += t.ok + t.rejected
		failed += t.failed
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%v\t%v\t%v\t%s\n", name, n, t.ok, t.rejected, t.failed,
			t.percentile(50), t.percentile(95), t.percentile(99), strings.Join(statuses, " "))
	}
	w.Flush()

	fmt.Printf("\n%d requests in %.2fs, %.2f answered per second\n", total, elapsed.Seconds(), float64(answered)/elapsed.Seconds())

	if len(errorCounts) > 0 {
		fmt.Println("\nERRORS")
		for msg, count := range errorCounts {
			fmt.Printf("  %-50s %d\n", msg, count)
		}
	}
	return failed
}
