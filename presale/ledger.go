package presale

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/samber/lo"

	presalegen "github.com/krazyTry/presale-go/gen/presale_factory"
)

// Ledger is an in-memory account store. Every mutation runs through Exec, which write-locks the
// declared accounts and commits all staged writes or none of them.
type Ledger struct {
	mu       sync.RWMutex
	accounts map[solana.PublicKey][]byte

	locksMu sync.Mutex
	locks   map[solana.PublicKey]*sync.Mutex
}

func NewLedger() *Ledger {
	return &Ledger{
		accounts: make(map[solana.PublicKey][]byte),
		locks:    make(map[solana.PublicKey]*sync.Mutex),
	}
}

// Get returns a copy of the committed account data.
func (l *Ledger) Get(key solana.PublicKey) ([]byte, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	data, ok := l.accounts[key]
	if !ok {
		return nil, false
	}
	return bytes.Clone(data), true
}

// Scan calls fn for every committed account whose data starts with prefix.
func (l *Ledger) Scan(prefix []byte, fn func(key solana.PublicKey, data []byte) bool) {
	l.mu.RLock()
	keys := make([]solana.PublicKey, 0, len(l.accounts))
	for k, v := range l.accounts {
		if bytes.HasPrefix(v, prefix) {
			keys = append(keys, k)
		}
	}
	l.mu.RUnlock()
	sortKeys(keys)

	for _, k := range keys {
		data, ok := l.Get(k)
		if !ok {
			continue
		}
		if !fn(k, data) {
			return
		}
	}
}

func (l *Ledger) keyLock(key solana.PublicKey) *sync.Mutex {
	l.locksMu.Lock()
	defer l.locksMu.Unlock()
	m, ok := l.locks[key]
	if !ok {
		m = new(sync.Mutex)
		l.locks[key] = m
	}
	return m
}

func sortKeys(keys []solana.PublicKey) {
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i][:], keys[j][:]) < 0
	})
}

// Exec runs fn as one transaction over the writable accounts. Keys are locked in byte order so
// overlapping transactions cannot deadlock.
func (l *Ledger) Exec(ctx context.Context, writable []solana.PublicKey, fn func(*Txn) error) ([]presalegen.Event, error) {
	keys := lo.Uniq(writable)
	sortKeys(keys)

	for i, key := range keys {
		if err := ctx.Err(); err != nil {
			for _, k := range keys[:i] {
				l.keyLock(k).Unlock()
			}
			return nil, err
		}
		l.keyLock(key).Lock()
	}
	defer func() {
		for _, key := range keys {
			l.keyLock(key).Unlock()
		}
	}()

	txn := &Txn{
		ledger:   l,
		writable: lo.SliceToMap(keys, func(k solana.PublicKey) (solana.PublicKey, struct{}) { return k, struct{}{} }),
		staged:   make(map[solana.PublicKey][]byte),
	}
	if err := fn(txn); err != nil {
		return nil, err
	}

	l.mu.Lock()
	for key, data := range txn.staged {
		if data == nil {
			delete(l.accounts, key)
			continue
		}
		l.accounts[key] = data
	}
	l.mu.Unlock()
	return txn.events, nil
}

// Txn stages reads and writes for one Exec call.
type Txn struct {
	ledger   *Ledger
	writable map[solana.PublicKey]struct{}
	// nil data marks a deletion
	staged map[solana.PublicKey][]byte
	events []presalegen.Event
}

func (t *Txn) Get(key solana.PublicKey) ([]byte, bool) {
	if data, ok := t.staged[key]; ok {
		if data == nil {
			return nil, false
		}
		return bytes.Clone(data), true
	}
	return t.ledger.Get(key)
}

func (t *Txn) checkWritable(key solana.PublicKey) error {
	if _, ok := t.writable[key]; !ok {
		return fmt.Errorf("account %s is not writable in this transaction", key)
	}
	return nil
}

func (t *Txn) Put(key solana.PublicKey, data []byte) error {
	if err := t.checkWritable(key); err != nil {
		return err
	}
	if data == nil {
		data = []byte{}
	}
	t.staged[key] = bytes.Clone(data)
	return nil
}

func (t *Txn) Delete(key solana.PublicKey) error {
	if err := t.checkWritable(key); err != nil {
		return err
	}
	t.staged[key] = nil
	return nil
}

// Emit queues an event; it is delivered only if the transaction commits.
func (t *Txn) Emit(ev presalegen.Event) {
	t.events = append(t.events, ev)
}
