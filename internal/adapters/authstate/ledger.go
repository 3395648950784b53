// Package authstate keeps the short-lived per-login records (PKCE verifier, nonce, dev state)
// that identity providers write at Begin and consume at the callback.
//
// ports.Storage has no TTL or key listing, so the ledger tracks every live state in an index
// entry next to the records and sweeps the expired ones on each Put. Abandoned logins are
// therefore reclaimed on every backend, bounded by the logins started within one TTL.
package authstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/idnremote/idnremote-go/internal/clock"
	"github.com/idnremote/idnremote-go/internal/ports"
)

var (
	// ErrUnknownState means no record exists for the state (never issued, already used or swept).
	ErrUnknownState = errors.New("unknown state")
	// ErrExpired means the record existed but is older than the ledger TTL.
	ErrExpired = errors.New("state expired")
)

// Ledger stores single-use records keyed by login state.
type Ledger struct {
	storage ports.Storage
	prefix  string
	ttl     time.Duration
	clock   clock.Clock

	// mu serializes index updates within this process.
	mu sync.Mutex
}

// New returns a Ledger writing records under prefix+state.
func New(storage ports.Storage, prefix string, ttl time.Duration, clk clock.Clock) *Ledger {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Ledger{storage: storage, prefix: prefix, ttl: ttl, clock: clk}
}

func (l *Ledger) indexKey() string { return l.prefix + "_index" }

// Put sweeps expired records, then stores value under state.
func (l *Ledger) Put(ctx context.Context, state string, value []byte) error {
	if state == "" {
		return errors.New("state is required")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	index, err := l.loadIndex(ctx)
	if err != nil {
		return err
	}
	now := l.clock.Now()
	for s, created := range index {
		if now.Sub(time.UnixMilli(created)) <= l.ttl {
			continue
		}
		if err := l.storage.Remove(ctx, l.prefix+s); err != nil {
			return fmt.Errorf("sweep login state: %w", err)
		}
		delete(index, s)
	}

	if err := l.storage.Set(ctx, l.prefix+state, value); err != nil {
		return fmt.Errorf("store login state: %w", err)
	}
	index[state] = now.UnixMilli()
	return l.saveIndex(ctx, index)
}

// Take returns and removes the record for state. Records are single use: an expired record
// is removed too.
func (l *Ledger) Take(ctx context.Context, state string) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := l.prefix + state
	raw, err := l.storage.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read login state: %w", err)
	}
	index, err := l.loadIndex(ctx)
	if err != nil {
		return nil, err
	}
	created, indexed := index[state]
	if raw == nil {
		return nil, ErrUnknownState
	}
	if err := l.storage.Remove(ctx, key); err != nil {
		return nil, fmt.Errorf("remove login state: %w", err)
	}
	if indexed {
		delete(index, state)
		if err := l.saveIndex(ctx, index); err != nil {
			return nil, err
		}
		if l.clock.Now().Sub(time.UnixMilli(created)) > l.ttl {
			return nil, ErrExpired
		}
	}
	return raw, nil
}

func (l *Ledger) loadIndex(ctx context.Context) (map[string]int64, error) {
	raw, err := l.storage.Get(ctx, l.indexKey())
	if err != nil {
		return nil, fmt.Errorf("read login state index: %w", err)
	}
	index := map[string]int64{}
	if raw == nil {
		return index, nil
	}
	if err := json.Unmarshal(raw, &index); err != nil {
		// A corrupt index only loses sweep bookkeeping; start over.
		return map[string]int64{}, nil
	}
	return index, nil
}

func (l *Ledger) saveIndex(ctx context.Context, index map[string]int64) error {
	if len(index) == 0 {
		if err := l.storage.Remove(ctx, l.indexKey()); err != nil {
			return fmt.Errorf("clear login state index: %w", err)
		}
		return nil
	}
	raw, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("encode login state index: %w", err)
	}
	if err := l.storage.Set(ctx, l.indexKey(), raw); err != nil {
		return fmt.Errorf("store login state index: %w", err)
	}
	return nil
}
