package memstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/couple-registry/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(channel, identifier, code string, ttl time.Duration) *domain.VerificationCode {
	now := time.Now()
	return &domain.VerificationCode{
		Channel:    channel,
		Identifier: identifier,
		Code:       code,
		IssuedAt:   now.Unix(),
		ExpiresAt:  now.Add(ttl).Unix(),
	}
}

func TestRedeem_Scenario(t *testing.T) {
	ctx := context.Background()
	s := NewCodeStore()
	require.NoError(t, s.Put(ctx, entry(domain.ChannelEmail, "a@x.com", "123456", time.Minute)))

	err := s.Redeem(ctx, domain.ChannelEmail, "a@x.com", "000000")
	assert.ErrorIs(t, err, domain.ErrCodeInvalid)

	// The wrong attempt must not consume the entry.
	require.NoError(t, s.Redeem(ctx, domain.ChannelEmail, "a@x.com", "123456"))

	// Single use: the same correct code is gone afterwards.
	err = s.Redeem(ctx, domain.ChannelEmail, "a@x.com", "123456")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRedeem_UnknownKey(t *testing.T) {
	s := NewCodeStore()
	err := s.Redeem(context.Background(), domain.ChannelSMS, "+15550001111", "123456")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRedeem_Expired(t *testing.T) {
	ctx := context.Background()
	s := NewCodeStore()
	require.NoError(t, s.Put(ctx, entry(domain.ChannelEmail, "a@x.com", "123456", -time.Second)))

	err := s.Redeem(ctx, domain.ChannelEmail, "a@x.com", "123456")
	assert.ErrorIs(t, err, domain.ErrCodeExpired)

	// Expiry deletes the entry on touch.
	err = s.Redeem(ctx, domain.ChannelEmail, "a@x.com", "123456")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPut_ReplacesPriorCode(t *testing.T) {
	ctx := context.Background()
	s := NewCodeStore()
	require.NoError(t, s.Put(ctx, entry(domain.ChannelEmail, "a@x.com", "111111", time.Minute)))
	require.NoError(t, s.Put(ctx, entry(domain.ChannelEmail, "a@x.com", "222222", time.Minute)))

	// The replaced code is immediately invalid.
	err := s.Redeem(ctx, domain.ChannelEmail, "a@x.com", "111111")
	assert.ErrorIs(t, err, domain.ErrCodeInvalid)

	require.NoError(t, s.Redeem(ctx, domain.ChannelEmail, "a@x.com", "222222"))
}

func TestPut_ChannelsAreIndependent(t *testing.T) {
	ctx := context.Background()
	s := NewCodeStore()
	require.NoError(t, s.Put(ctx, entry(domain.ChannelEmail, "id", "111111", time.Minute)))
	require.NoError(t, s.Put(ctx, entry(domain.ChannelSMS, "id", "222222", time.Minute)))

	require.NoError(t, s.Redeem(ctx, domain.ChannelEmail, "id", "111111"))
	require.NoError(t, s.Redeem(ctx, domain.ChannelSMS, "id", "222222"))
}

func TestRedeem_AtMostOneConsumption(t *testing.T) {
	ctx := context.Background()
	s := NewCodeStore()
	require.NoError(t, s.Put(ctx, entry(domain.ChannelEmail, "a@x.com", "123456", time.Minute)))

	const callers = 32
	var wg sync.WaitGroup
	successes := make(chan struct{}, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Redeem(ctx, domain.ChannelEmail, "a@x.com", "123456") == nil {
				successes <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(successes)

	count := 0
	for range successes {
		count++
	}
	assert.Equal(t, 1, count, "exactly one concurrent redeem may succeed")
}
