package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPricing_TenPercentCommission(t *testing.T) {
	rate := decimal.NewFromFloat(0.10)

	commission, total := Pricing(decimal.NewFromInt(100), rate)

	assert.True(t, commission.Equal(decimal.NewFromInt(10)), "commission = %s", commission)
	assert.True(t, total.Equal(decimal.NewFromInt(110)), "total = %s", total)
}

func TestPricing_RoundsToCents(t *testing.T) {
	rate := decimal.NewFromFloat(0.10)

	price, err := decimal.NewFromString("33.33")
	require.NoError(t, err)

	commission, total := Pricing(price, rate)

	expectedCommission, _ := decimal.NewFromString("3.33")
	expectedTotal, _ := decimal.NewFromString("36.66")
	assert.True(t, commission.Equal(expectedCommission), "commission = %s", commission)
	assert.True(t, total.Equal(expectedTotal), "total = %s", total)
}

func TestPricing_NoFloatDrift(t *testing.T) {
	rate := decimal.NewFromFloat(0.10)

	// 0.1+0.2 style inputs must not accumulate binary float error.
	price, _ := decimal.NewFromString("19.99")
	commission, total := Pricing(price, rate)

	assert.Equal(t, "2.00", commission.StringFixed(2))
	assert.Equal(t, "21.99", total.StringFixed(2))
}

func TestOrder_Finalized(t *testing.T) {
	cases := []struct {
		status    string
		finalized bool
	}{
		{OrderPending, false},
		{OrderPaid, false},
		{OrderCancelled, false},
		{OrderCompleted, true},
		{OrderRefunded, true},
		{OrderDisputed, true},
	}

	for _, tc := range cases {
		o := &Order{Status: tc.status}
		assert.Equal(t, tc.finalized, o.Finalized(), "status %s", tc.status)
	}
}

func TestTicket_DecimalPrice(t *testing.T) {
	ticket := &Ticket{Price: 149.99}

	expected, _ := decimal.NewFromString("149.99")
	assert.True(t, ticket.DecimalPrice().Equal(expected))
}
