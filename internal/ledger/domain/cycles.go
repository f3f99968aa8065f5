package domain

import "time"

// SegmentCycles partitions a partner's full ascending history into debt
// cycles: maximal runs where the running balance is non-zero, each bounded
// by a crossing through exactly zero.
//
// A cycle starts at the first entry after which the balance becomes non-zero
// and closes at the entry where it returns to zero. The final cycle is open
// iff the last running balance is non-zero. A history whose balance never
// leaves zero yields no cycles.
func SegmentCycles(entries []LedgerEntry) []DebtCycle {
	trace := WithRunningBalance(entries)

	var cycles []DebtCycle
	var current *DebtCycle

	for i := range trace {
		if current == nil {
			if trace[i].RunningBalance != 0 {
				current = &DebtCycle{
					Sequence:  len(cycles) + 1,
					StartDate: trace[i].Date,
					Status:    CycleStatusOpen,
					Entries:   1,
				}
			}
			continue
		}

		current.Entries++
		if trace[i].RunningBalance == 0 {
			end := trace[i].Date
			current.EndDate = &end
			current.Status = CycleStatusClosed
			cycles = append(cycles, *current)
			current = nil
		}
	}

	if current != nil {
		cycles = append(cycles, *current)
	}
	return cycles
}

// EarliestDate returns the date of the first entry, or the zero time for an
// empty history.
func EarliestDate(entries []LedgerEntry) time.Time {
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Date
}
