package chunk

import (
	"github.com/jsphweid/cpword/model"
	"github.com/pkg/errors"
)

type Stats struct {
	Chunks int
	// words that ended up in no chunk: mid-bar words skipped while looking
	// for the next bar start, plus any tail with no later bar start
	Dropped int
}

// Split cuts seq into pieces of at most maxLength words. Every piece after the
// first starts on a bar start, so bars are never cut in two at the front of a
// chunk. Words between the end of one chunk and the next bar start, and a
// trailing run that never reaches another bar start, are not emitted.
func Split(seq model.Sequence, maxLength int) ([]model.Sequence, error) {
	res, _, err := SplitWithStats(seq, maxLength)
	return res, err
}

func SplitWithStats(seq model.Sequence, maxLength int) ([]model.Sequence, Stats, error) {
	var stats Stats
	if maxLength <= 0 {
		return nil, stats, errors.Wrapf(model.ErrConfiguration, "max length must be positive, got %d", maxLength)
	}
	if len(seq) == 0 {
		return nil, stats, nil
	}

	var res []model.Sequence
	emit := func(start, end int) {
		res = append(res, seq[start:end].Clone())
	}

	if len(seq) <= maxLength {
		emit(0, len(seq))
		stats.Chunks = 1
		return res, stats, nil
	}

	emit(0, maxLength)
	emitted := maxLength
	pos := maxLength
	for {
		start := nextBarStart(seq, pos)
		if start < 0 {
			break
		}
		if len(seq)-start < maxLength {
			emit(start, len(seq))
			emitted += len(seq) - start
			break
		}
		emit(start, start+maxLength)
		emitted += maxLength
		pos = start + maxLength
	}

	stats.Chunks = len(res)
	stats.Dropped = len(seq) - emitted
	return res, stats, nil
}

func nextBarStart(seq model.Sequence, from int) int {
	for i := from; i < len(seq); i++ {
		if seq[i].IsBarStart() {
			return i
		}
	}
	return -1
}
