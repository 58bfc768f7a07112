package batch

import (
	"math/rand"

	"github.com/jsphweid/cpword/constants"
	"github.com/jsphweid/cpword/model"
	"github.com/pkg/errors"
)

// Pad copies seqs into a [len(seqs), targetLength, 4] batch, filling the tail
// of each row with the pad word. targetLength 0 means the longest sequence.
// A sequence longer than targetLength is an error, never truncated, and so
// is any word outside the vocabulary.
func Pad(seqs []model.Sequence, targetLength int, v constants.Vocabulary) (model.PaddedBatch, error) {
	if targetLength < 0 {
		return model.PaddedBatch{}, errors.Wrapf(model.ErrConfiguration, "target length %d is negative", targetLength)
	}

	longest := 0
	for i, seq := range seqs {
		if targetLength > 0 && len(seq) > targetLength {
			return model.PaddedBatch{}, errors.Wrapf(model.ErrConfiguration,
				"sequence %d has length %d, longer than target length %d", i, len(seq), targetLength)
		}
		if len(seq) > longest {
			longest = len(seq)
		}
		for j, w := range seq {
			if err := w.Validate(v); err != nil {
				return model.PaddedBatch{}, errors.Wrapf(model.ErrConfiguration, "sequence %d word %d: %v", i, j, err)
			}
		}
	}
	if targetLength == 0 {
		targetLength = longest
	}

	pad := model.PadWord(v)
	res := model.NewPaddedBatch(len(seqs), targetLength)
	for i, seq := range seqs {
		for j := 0; j < targetLength; j++ {
			if j < len(seq) {
				res.Set(i, j, seq[j])
			} else {
				res.Set(i, j, pad)
			}
		}
	}
	return res, nil
}

// Flatten lays groups out back to back. All groups must be the same size so
// that group k always occupies [k*size, (k+1)*size).
func Flatten(groups []model.Group) ([]model.Sequence, int, error) {
	if len(groups) == 0 {
		return nil, 0, nil
	}
	size := len(groups[0])
	res := make([]model.Sequence, 0, size*len(groups))
	for i, g := range groups {
		if len(g) != size {
			return nil, 0, errors.Wrapf(model.ErrGroupAlignment, "group %d has %d members, expected %d", i, len(g), size)
		}
		res = append(res, g...)
	}
	return res, size, nil
}

func checkGroups(n, groupSize int) error {
	if groupSize <= 0 {
		return errors.Wrapf(model.ErrConfiguration, "group size must be positive, got %d", groupSize)
	}
	if n%groupSize != 0 {
		return errors.Wrapf(model.ErrGroupAlignment, "batch size %d is not a multiple of group size %d", n, groupSize)
	}
	return nil
}

// ShuffleWithinGroups permutes seqs in place, only ever swapping members of
// the same group.
func ShuffleWithinGroups(seqs []model.Sequence, groupSize int, rng *rand.Rand) error {
	if err := checkGroups(len(seqs), groupSize); err != nil {
		return err
	}
	for start := 0; start < len(seqs); start += groupSize {
		group := seqs[start : start+groupSize]
		rng.Shuffle(len(group), func(i, j int) {
			group[i], group[j] = group[j], group[i]
		})
	}
	return nil
}

// ShuffleGroups permutes whole groups in place. Members keep their order
// inside the group.
func ShuffleGroups(seqs []model.Sequence, groupSize int, rng *rand.Rand) error {
	if err := checkGroups(len(seqs), groupSize); err != nil {
		return err
	}
	numGroups := len(seqs) / groupSize
	order := rng.Perm(numGroups)
	res := make([]model.Sequence, 0, len(seqs))
	for _, g := range order {
		res = append(res, seqs[g*groupSize:(g+1)*groupSize]...)
	}
	copy(seqs, res)
	return nil
}
