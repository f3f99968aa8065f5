package domain

// WithRunningBalance populates the running balance over a chronologically
// ascending sequence with a single left-to-right pass starting from zero.
//
// The fold always opens at zero over the visible window: callers wanting a
// true account statement must pass the entire unfiltered history, or seed
// the result themselves.
func WithRunningBalance(entries []LedgerEntry) []LedgerEntry {
	var balance int64
	for i := range entries {
		balance += entries[i].Amount
		entries[i].RunningBalance = balance
	}
	return entries
}

// Sum returns the signed total of a sequence of entries.
func Sum(entries []LedgerEntry) int64 {
	var total int64
	for i := range entries {
		total += entries[i].Amount
	}
	return total
}
