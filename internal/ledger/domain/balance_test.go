package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func entriesWithAmounts(amounts ...int64) []LedgerEntry {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	entries := make([]LedgerEntry, len(amounts))
	for i, amount := range amounts {
		entries[i] = LedgerEntry{
			Amount: amount,
			Date:   base.AddDate(0, 0, i),
		}
	}
	return entries
}

func TestWithRunningBalance(t *testing.T) {
	entries := WithRunningBalance(entriesWithAmounts(250_000, -100_000, -150_000, 80_000))

	balances := make([]int64, len(entries))
	for i, e := range entries {
		balances[i] = e.RunningBalance
	}
	assert.Equal(t, []int64{250_000, 150_000, 0, 80_000}, balances)
}

func TestWithRunningBalanceEmpty(t *testing.T) {
	assert.Empty(t, WithRunningBalance(nil))
}

func TestWithRunningBalanceZeroEntries(t *testing.T) {
	entries := WithRunningBalance(entriesWithAmounts(0, 0, 0))
	for _, e := range entries {
		assert.Equal(t, int64(0), e.RunningBalance)
	}
}

func TestSum(t *testing.T) {
	assert.Equal(t, int64(0), Sum(nil))
	assert.Equal(t, int64(80_000), Sum(entriesWithAmounts(250_000, -100_000, -150_000, 80_000)))
	assert.Equal(t, int64(-30_000), Sum(entriesWithAmounts(-30_000)))
}
