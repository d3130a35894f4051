package peer

import (
	"sync"
	"time"

	"github.com/protei/hss/internal/diameter"
)

// defaultTransactionTimeout is the deadline applied to outbound
// transactions that don't specify one (e.g. CER/DWR per the base
// protocol default of 10s).
const defaultTransactionTimeout = 10 * time.Second

// pendingTransaction is one outstanding outbound request. answerCh is
// nil for a send_and_forget transaction (CLR origination): the entry
// exists only to match and reap a later answer, nothing is blocked
// waiting on it.
type pendingTransaction struct {
	hopByHopID uint32
	deadline   time.Time
	answerCh   chan *diameter.Message
}

// transactionTable is the shared pending-request table: written by
// whichever goroutine originates a request, which registers the
// transaction before queueing the message for the writer, read by the
// reader goroutine matching an inbound answer, and swept
// periodically for expired entries. Critical sections are kept to
// plain map operations so neither loop ever stalls on the other.
type transactionTable struct {
	mu      sync.Mutex
	entries map[uint32]*pendingTransaction
}

func newTransactionTable() *transactionTable {
	return &transactionTable{entries: make(map[uint32]*pendingTransaction)}
}

// register adds a new pending transaction with the given timeout. A
// nil answerCh marks this as send_and_forget.
func (t *transactionTable) register(hopByHopID uint32, timeout time.Duration, answerCh chan *diameter.Message) {
	if timeout <= 0 {
		timeout = defaultTransactionTimeout
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[hopByHopID] = &pendingTransaction{
		hopByHopID: hopByHopID,
		deadline:   time.Now().Add(timeout),
		answerCh:   answerCh,
	}
}

// match looks up and removes the pending transaction for an inbound
// answer's hop-by-hop id. ok is false for an out-of-table answer.
func (t *transactionTable) match(hopByHopID uint32) (*pendingTransaction, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.entries[hopByHopID]
	if !ok {
		return nil, false
	}
	delete(t.entries, hopByHopID)
	return p, true
}

// sweepExpired removes and returns every entry past its deadline.
func (t *transactionTable) sweepExpired(now time.Time) []*pendingTransaction {
	t.mu.Lock()
	defer t.mu.Unlock()
	var expired []*pendingTransaction
	for id, p := range t.entries {
		if now.After(p.deadline) {
			expired = append(expired, p)
			delete(t.entries, id)
		}
	}
	return expired
}
