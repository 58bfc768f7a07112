package grid

import (
	"github.com/jsphweid/cpword/constants"
	"github.com/jsphweid/cpword/model"
)

type signature struct {
	num   int
	denom int
}

func (s signature) barLength(resolution int) float64 {
	quarterNotesPerBar := float64(s.num) / float64(s.denom) * 4
	return quarterNotesPerBar * float64(resolution)
}

// Build returns the tick at which every bar up to totalTicks begins. Changes
// must be sorted by onset; a change only takes effect at the first bar that
// starts at or after it, so a mid-bar change never shortens the bar in
// progress. changes is read, never modified.
func Build(totalTicks int64, changes []model.TimeSignatureChange, resolution int) model.BarTickTable {
	table := model.BarTickTable{0}
	if resolution <= 0 {
		return table
	}

	current := signature{constants.DefaultNumerator, constants.DefaultDenominator}
	next := 0
	total := float64(totalTicks)
	var cursor float64
	for cursor < total {
		for next < len(changes) && float64(changes[next].OnsetTick) <= cursor {
			c := changes[next]
			next++
			// a 0/x or x/0 meter can't advance the grid, keep the previous one
			if c.Numerator <= 0 || c.Denominator <= 0 {
				continue
			}
			current = signature{c.Numerator, c.Denominator}
		}
		cursor += current.barLength(resolution)
		table = append(table, cursor)
	}
	return table
}

// BarLength is the length of bar number bar (1-based), extrapolating past the
// end of the table with the last known bar length.
func BarLength(table model.BarTickTable, bar int, resolution int) float64 {
	if bar >= 1 && bar < len(table) {
		return table[bar] - table[bar-1]
	}
	if len(table) >= 2 {
		return table[len(table)-1] - table[len(table)-2]
	}
	return signature{constants.DefaultNumerator, constants.DefaultDenominator}.barLength(resolution)
}

// BarStart is the tick at which bar number bar (1-based) begins.
func BarStart(table model.BarTickTable, bar int, resolution int) float64 {
	if bar >= 1 && bar <= len(table) {
		return table[bar-1]
	}
	last := table[len(table)-1]
	return last + float64(bar-len(table))*BarLength(table, bar, resolution)
}
