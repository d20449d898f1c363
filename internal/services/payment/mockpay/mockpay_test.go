package mockpay

import (
	"context"
	"strings"
	"testing"

	"fanpass/internal/status"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMockpay(t *testing.T) *Mockpay {
	t.Helper()
	m, err := New(context.Background(), &Config{PublicURL: "http://localhost:8090"})
	require.NoError(t, err)
	return m
}

func TestMockpay_CreateAndGetSession(t *testing.T) {
	m := newTestMockpay(t)
	ctx := context.Background()

	s, err := m.CreateSession(ctx, decimal.NewFromInt(110), "EUR", map[string]string{"order_id": "order-1"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s.ID, "mock_"))
	assert.Contains(t, s.URL, s.ID)
	assert.Equal(t, "initiated", s.Status)

	got, err := m.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "initiated", got.Status)
	assert.Equal(t, "order-1", got.Metadata["order_id"])
}

func TestMockpay_GetUnknownSession(t *testing.T) {
	m := newTestMockpay(t)

	_, err := m.GetSession(context.Background(), "mock_nope")

	assert.ErrorIs(t, err, status.ErrUnknownSession)
}

func TestMockpay_ResolveKeepsFirstOutcome(t *testing.T) {
	m := newTestMockpay(t)
	ctx := context.Background()

	s, err := m.CreateSession(ctx, decimal.NewFromInt(110), "EUR", nil)
	require.NoError(t, err)

	require.NoError(t, m.Resolve(ctx, s.ID, "paid"))
	// A second resolution is ignored, the session stays paid.
	require.NoError(t, m.Resolve(ctx, s.ID, "failed"))

	got, err := m.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "paid", got.Status)
}

func TestMockpay_ResolveUnknownSession(t *testing.T) {
	m := newTestMockpay(t)

	err := m.Resolve(context.Background(), "mock_nope", "paid")

	assert.ErrorIs(t, err, status.ErrUnknownSession)
}

func TestMockpay_ResolveForwardsOutcome(t *testing.T) {
	m := newTestMockpay(t)
	ctx := context.Background()

	ch := make(chan *Outcome, 1)
	m.SetOutcomeChannel(ch)

	s, err := m.CreateSession(ctx, decimal.NewFromInt(50), "EUR", nil)
	require.NoError(t, err)
	require.NoError(t, m.Resolve(ctx, s.ID, "failed"))

	outcome := <-ch
	assert.Equal(t, s.ID, outcome.SessionID)
	assert.Equal(t, "failed", outcome.Status)
}
