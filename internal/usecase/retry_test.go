package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"admissionrag/internal/domain"
)

func TestRetryPolicy(t *testing.T) {
	unavailable := domain.Unavailable("generation", "fake", errors.New("503"))
	other := errors.New("bad request")

	tests := []struct {
		name      string
		policy    RetryPolicy
		failures  int
		err       error
		wantCalls int
		wantErr   error
	}{
		{"success", RetryPolicy{MaxAttempts: 3}, 0, nil, 1, nil},
		{"recovers", RetryPolicy{MaxAttempts: 3, Backoff: time.Millisecond}, 2, unavailable, 3, nil},
		{"exhausted", RetryPolicy{MaxAttempts: 2}, 5, unavailable, 2, domain.ErrCapabilityUnavailable},
		{"not retried", RetryPolicy{MaxAttempts: 3}, 5, other, 1, other},
		{"zero attempts runs once", RetryPolicy{}, 5, unavailable, 1, domain.ErrCapabilityUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := tt.policy.Do(context.Background(), "test", func(ctx context.Context) error {
				calls++
				if calls <= tt.failures {
					return tt.err
				}
				return nil
			})
			if tt.wantErr == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, tt.wantErr)
			}
			require.Equal(t, tt.wantCalls, calls)
		})
	}
}

func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := RetryPolicy{MaxAttempts: 5, Backoff: time.Hour}.Do(ctx, "test", func(ctx context.Context) error {
		calls++
		cancel()
		return domain.Unavailable("embedding", "fake", errors.New("timeout"))
	})
	require.ErrorIs(t, err, domain.ErrCapabilityUnavailable)
	require.Equal(t, 1, calls)
}
