// Package memory is an in-process storage engine with row locks and rollback,
// used for local development and for exercising the ledgers without PostgreSQL.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/entity"
	coreport "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/core"
	"github.com/shopspring/decimal"
)

type walletRow struct {
	id        uint64
	userID    uint64
	balance   decimal.Decimal
	createdAt time.Time
	updatedAt time.Time
}

func (r *walletRow) toEntity() *entity.WalletAccount {
	return entity.RestoreWalletAccount(r.id, r.userID, r.balance, r.createdAt, r.updatedAt)
}

type voteKey struct {
	voterID uint64
	target  entity.VoteTarget
}

// rowKey names one row of one table
type rowKey struct {
	table string
	key   any
}

func walletRowKey(userID uint64) rowKey { return rowKey{table: "wallets", key: userID} }
func voteRowKey(key voteKey) rowKey { return rowKey{table: "votes", key: key} }
func targetRowKey(target entity.VoteTarget) rowKey { return rowKey{table: "targets", key: target} }

// shadow is the committed image of a row that an open transaction has written
type shadow struct {
	owner  *tx
	value  any
	exists bool
}

// Store holds every table in memory. mu only guards the maps; row locks are
// per-key channels held for the lifetime of a transaction.
//
// Writes go in place. The first write of a row inside a transaction saves the
// row's committed image in shadows, and ledger entries inserted by an open
// transaction are listed in pending. Other readers see the shadow and skip the
// pending entries, so only committed data is visible outside the writing
// transaction, as under READ COMMITTED.
type Store struct {
	mu sync.Mutex

	nextWalletID uint64
	nextTxID     uint64
	nextVoteID   uint64

	wallets      map[uint64]*walletRow // keyed by user ID
	transactions []entity.WalletTransaction
	votes        map[voteKey]entity.VoteRecord
	targets      map[entity.VoteTarget]entity.VoteCounters
	locks        map[string]chan struct{}

	shadows map[rowKey]shadow
	pending map[uint64]*tx // ledger entry ID to inserting transaction

	timeProvider coreport.TimeProvider
}

// NewStore creates an empty store
func NewStore(timeProvider coreport.TimeProvider) *Store {
	return &Store{
		wallets:      make(map[uint64]*walletRow),
		votes:        make(map[voteKey]entity.VoteRecord),
		targets:      make(map[entity.VoteTarget]entity.VoteCounters),
		locks:        make(map[string]chan struct{}),
		shadows:      make(map[rowKey]shadow),
		pending:      make(map[uint64]*tx),
		timeProvider: timeProvider,
	}
}

// rememberLocked saves a row's committed image before t first writes it
func (s *Store) rememberLocked(t *tx, key rowKey, value any, exists bool) {
	if t == nil {
		return
	}
	if _, ok := s.shadows[key]; ok {
		return
	}
	s.shadows[key] = shadow{owner: t, value: value, exists: exists}
	t.shadowed = append(t.shadowed, key)
}

// visible returns the image of a row that reader t may see: its own writes, or
// the committed image when another transaction has written the row
func visible[V any](s *Store, t *tx, key rowKey, live V, exists bool) (V, bool) {
	sh, ok := s.shadows[key]
	if !ok || sh.owner == t {
		return live, exists
	}
	if !sh.exists {
		var zero V
		return zero, false
	}
	return sh.value.(V), true
}

// markPendingLocked hides a ledger entry from other readers until t ends
func (s *Store) markPendingLocked(t *tx, id uint64) {
	if t == nil {
		return
	}
	s.pending[id] = t
	t.inserted = append(t.inserted, id)
}

// hiddenLocked reports whether the ledger entry is uncommitted work of
// another transaction
func (s *Store) hiddenLocked(t *tx, id uint64) bool {
	owner, ok := s.pending[id]
	return ok && owner != t
}

// settleLocked publishes the state t leaves behind
func (s *Store) settleLocked(t *tx) {
	for _, key := range t.shadowed {
		delete(s.shadows, key)
	}
	for _, id := range t.inserted {
		delete(s.pending, id)
	}
	t.shadowed = nil
	t.inserted = nil
}

// AddTarget registers a votable entity with starting counters
func (s *Store) AddTarget(target entity.VoteTarget, counters entity.VoteCounters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets[target] = counters
}

// VoteCount returns how many committed records the target has per direction,
// bypassing locks
func (s *Store) VoteCount(target entity.VoteTarget) entity.VoteCounters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countLocked(nil, target)
}

// TransactionCount returns the number of ledger entries across all wallets
func (s *Store) TransactionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.transactions)
}

// countLocked counts the target's records as reader t sees them
func (s *Store) countLocked(t *tx, target entity.VoteTarget) entity.VoteCounters {
	var counters entity.VoteCounters
	count := func(record entity.VoteRecord) {
		if record.Direction == entity.VoteUp {
			counters.Up++
		} else {
			counters.Down++
		}
	}

	for key, record := range s.votes {
		if key.target != target {
			continue
		}
		if seen, ok := visible(s, t, voteRowKey(key), record, true); ok {
			count(seen)
		}
	}

	// Records another transaction deleted are still committed
	for row, sh := range s.shadows {
		key, isVote := row.key.(voteKey)
		if !isVote || key.target != target || sh.owner == t || !sh.exists {
			continue
		}
		if _, live := s.votes[key]; !live {
			count(sh.value.(entity.VoteRecord))
		}
	}
	return counters
}

func (s *Store) rowLock(key string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[key] = ch
	}
	return ch
}

// tx is an open transaction. Writes are applied in place and undone on rollback.
type tx struct {
	store    *Store
	held     map[string]chan struct{}
	undo     []func()
	shadowed []rowKey
	inserted []uint64
	done     bool
}

// lock acquires the named row lock for the rest of the transaction.
// A nil transaction runs in autocommit mode and takes no lock.
func (t *tx) lock(ctx context.Context, key string) error {
	if t == nil {
		return nil
	}
	if _, ok := t.held[key]; ok {
		return nil
	}
	ch := t.store.rowLock(key)
	select {
	case ch <- struct{}{}:
		t.held[key] = ch
		return nil
	case <-ctx.Done():
		return fmt.Errorf("lock %s: %w", key, ctx.Err())
	}
}

func (t *tx) onRollback(fn func()) {
	if t != nil {
		t.undo = append(t.undo, fn)
	}
}

func (t *tx) release() {
	for key, ch := range t.held {
		<-ch
		delete(t.held, key)
	}
	t.done = true
}

func (t *tx) commit() {
	t.store.mu.Lock()
	t.undo = nil
	t.store.settleLocked(t)
	t.store.mu.Unlock()
	t.release()
}

func (t *tx) rollback() {
	t.store.mu.Lock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
	t.store.settleLocked(t)
	t.store.mu.Unlock()
	t.release()
}

func walletLockKey(userID uint64) string {
	return fmt.Sprintf("wallet:user:%d", userID)
}

func voteLockKey(voterID uint64, target entity.VoteTarget) string {
	return fmt.Sprintf("vote:%d:%s", voterID, target.Tag())
}

func targetLockKey(target entity.VoteTarget) string {
	return "target:" + target.Tag()
}
