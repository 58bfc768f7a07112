package word

import (
	"github.com/jsphweid/cpword/constants"
	"github.com/jsphweid/cpword/grid"
	"github.com/jsphweid/cpword/model"
	"github.com/pkg/errors"
)

// Assemble quantizes every note of a score, in the order given. Notes are
// expected in non-decreasing onset order; they are not re-sorted here.
func Assemble(score model.Score, v constants.Vocabulary) (model.Sequence, error) {
	if len(score.Notes) == 0 {
		return nil, errors.Wrap(model.ErrEmptyTrack, "no notes on target track")
	}
	if score.Resolution <= 0 {
		return nil, errors.Wrapf(model.ErrFileParse, "resolution %d", score.Resolution)
	}

	total := score.EndTick
	for _, note := range score.Notes {
		if note.EndTick > total {
			total = note.EndTick
		}
	}

	table := grid.Build(total, score.TimeSignatures, score.Resolution)
	q := NewQuantizer(table, score.Resolution, v)
	seq := make(model.Sequence, 0, len(score.Notes))
	for _, note := range score.Notes {
		w, err := q.Quantize(note)
		if err != nil {
			return nil, err
		}
		seq = append(seq, w)
	}
	return seq, nil
}
