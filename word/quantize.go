package word

import (
	"math"

	"github.com/jsphweid/cpword/constants"
	"github.com/jsphweid/cpword/grid"
	"github.com/jsphweid/cpword/model"
	"github.com/jsphweid/cpword/util"
	"github.com/pkg/errors"
)

// BarOfTick returns the 1-based bar containing tick t: the smallest index i
// with table[i] > t, or len(table) when t is past the last boundary. A tick
// landing exactly on a boundary belongs to the bar that starts there.
func BarOfTick(t float64, table model.BarTickTable) int {
	for i, start := range table {
		if start > t {
			return i
		}
	}
	return len(table)
}

// PositionOfTick quantizes t's offset inside bar into
// [0, NumPositionSubbeats-1].
func PositionOfTick(t float64, bar int, table model.BarTickTable, resolution int, v constants.Vocabulary) int {
	start := grid.BarStart(table, bar, resolution)
	length := grid.BarLength(table, bar, resolution)
	if length <= 0 {
		return 0
	}
	fraction := (t - start) / length
	position := int(math.Floor(fraction * float64(v.NumPositionSubbeats)))
	return util.Clip(position, 0, v.NumPositionSubbeats-1)
}

// Duration is the note length in 1/DurationStepsPerQuarter quarter notes,
// saturating at the top of the vocabulary.
func Duration(startTick, endTick int64, resolution int, v constants.Vocabulary) int {
	if resolution <= 0 {
		return 0
	}
	quarters := float64(endTick-startTick) / float64(resolution)
	steps := int(math.Round(quarters * float64(v.DurationStepsPerQuarter)))
	return util.Clip(steps, 0, v.NumDurationSubbeats-1)
}

// Quantizer turns the notes of one file into words. It remembers the bar of
// the previous note, so one Quantizer must see a file's notes in order and
// must not be shared between files.
type Quantizer struct {
	table      model.BarTickTable
	resolution int
	vocab      constants.Vocabulary
	prevBar    int
	started    bool
}

func NewQuantizer(table model.BarTickTable, resolution int, v constants.Vocabulary) *Quantizer {
	return &Quantizer{table: table, resolution: resolution, vocab: v}
}

// Quantize turns one note into a word. An error means the vocabulary cannot
// hold the clipped fields, which is a configuration problem.
func (q *Quantizer) Quantize(note model.RawNote) (model.Word, error) {
	onset := float64(note.OnsetTick)
	bar := BarOfTick(onset, q.table)

	var newBar int
	if !q.started || bar != q.prevBar {
		newBar = 1
	}
	q.prevBar = bar
	q.started = true

	w, err := model.NewWord(
		newBar,
		PositionOfTick(onset, bar, q.table, q.resolution, q.vocab),
		util.Clip(int(note.Pitch), q.vocab.MinPitch, q.vocab.MaxPitch),
		Duration(note.OnsetTick, note.EndTick, q.resolution, q.vocab),
		q.vocab,
	)
	if err != nil {
		return model.Word{}, errors.Wrapf(model.ErrConfiguration, "note at tick %d: %v", note.OnsetTick, err)
	}
	return w, nil
}
