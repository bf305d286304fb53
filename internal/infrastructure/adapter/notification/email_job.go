// Package notification delivers ledger notifications by email. Producers push
// jobs onto a Redis list; a worker pops them and hands them to an SMTP relay.
package notification

import (
	"fmt"
	"time"

	coreport "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/core"
)

// DefaultQueue is the Redis list email jobs are pushed to
const DefaultQueue = "emails"

// EmailJob is a queued email
type EmailJob struct {
	To      string    `json:"to"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Kind    string    `json:"kind"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

// FailedJob is what lands on the dead-letter list once retries are exhausted
type FailedJob struct {
	Job      EmailJob  `json:"job"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"time"`
}

func failedQueue(queue string) string {
	return queue + ":failed"
}

// renderEmail builds the subject and body for a notification
func renderEmail(n coreport.Notification, currency, signature string) (string, string, error) {
	when := n.OccurredAt.Format("Jan 2, 2006 at 3:04 PM")

	switch n.Kind {
	case coreport.NotificationWalletRecharge:
		subject := fmt.Sprintf("Wallet recharged - %s %s", currency, n.Amount)
		body := fmt.Sprintf(`Hi,

Your wallet has been recharged.

Amount: %s %s
New balance: %s %s
Transaction: #%d
Time: %s

- %s`, currency, n.Amount, currency, n.Balance, n.TransactionID, when, signature)
		return subject, body, nil

	case coreport.NotificationWalletRefund:
		subject := fmt.Sprintf("Refund received - %s %s", currency, n.Amount)
		body := fmt.Sprintf(`Hi,

A refund has been credited to your wallet.

Amount: %s %s
New balance: %s %s
Transaction: #%d
Time: %s

- %s`, currency, n.Amount, currency, n.Balance, n.TransactionID, when, signature)
		return subject, body, nil
	}

	return "", "", fmt.Errorf("unknown notification kind %q", n.Kind)
}
