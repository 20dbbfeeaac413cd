// Package memstore provides an in-process verification-code store for
// development and tests. It implements the same issue/redeem contract as the
// DynamoDB-backed repo, including at-most-one-consumption under concurrency.
package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/couple-registry/internal/domain"
)

type CodeStore struct {
	mu    sync.Mutex
	codes map[string]*domain.VerificationCode
}

func NewCodeStore() *CodeStore {
	return &CodeStore{codes: make(map[string]*domain.VerificationCode)}
}

func key(channel, identifier string) string {
	return channel + "#" + identifier
}

// Put stores the code, replacing any prior entry for (channel, identifier).
func (s *CodeStore) Put(_ context.Context, c *domain.VerificationCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.codes[key(c.Channel, c.Identifier)] = &cp
	return nil
}

// Redeem consumes the matching code exactly once. The lock spans the whole
// compare-and-delete, so concurrent redeems with the correct code cannot both
// succeed.
func (s *CodeStore) Redeem(_ context.Context, channel, identifier, submitted string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(channel, identifier)
	c, ok := s.codes[k]
	if !ok {
		return fmt.Errorf("no outstanding code: %w", domain.ErrNotFound)
	}
	if c.Expired(time.Now()) {
		delete(s.codes, k)
		return fmt.Errorf("code past expiry: %w", domain.ErrCodeExpired)
	}
	if c.Code != submitted {
		// Entry is retained; the caller may retry until expiry or reissue.
		return fmt.Errorf("code mismatch: %w", domain.ErrCodeInvalid)
	}
	delete(s.codes, k)
	return nil
}
