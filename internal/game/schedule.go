// apps/go-server/internal/game/schedule.go
//
// Difficulty schedule: round r plays a capital from tier r. Tiers are contiguous
// slices of the ranked dataset, Width records each, except the last which runs to
// the end of the dataset.

package game

import "fmt"

// Tier is a [Start, End) index range over the capitals dataset.
type Tier struct {
	Start, End int
}

// Len is the number of capitals in the tier.
func (t Tier) Len() int { return t.End - t.Start }

// Schedule maps round indices to tiers.
type Schedule struct {
	size  int // dataset length
	width int
	tiers int
}

// NewSchedule builds a schedule of tiers tiers over a dataset of size records.
// Every tier must be non-empty, so size has to exceed (tiers-1)*width.
func NewSchedule(size, width, tiers int) (Schedule, error) {
	if width < 1 || tiers < 1 {
		return Schedule{}, fmt.Errorf("schedule: width and tiers must be positive (got %d, %d)", width, tiers)
	}
	if size <= (tiers-1)*width {
		return Schedule{}, fmt.Errorf("schedule: %d capitals is too few for %d tiers of %d", size, tiers, width)
	}
	return Schedule{size: size, width: width, tiers: tiers}, nil
}

// TotalRounds is one round per tier.
func (s Schedule) TotalRounds() int { return s.tiers }

// TierFor returns the tier for a zero-based round index, or ErrOutOfRounds once
// every round has been played.
func (s Schedule) TierFor(round int) (Tier, error) {
	if round < 0 {
		return Tier{}, fmt.Errorf("schedule: negative round %d", round)
	}
	if round >= s.tiers {
		return Tier{}, ErrOutOfRounds
	}
	t := Tier{Start: round * s.width, End: (round + 1) * s.width}
	if round == s.tiers-1 {
		t.End = s.size
	}
	return t, nil
}
