package augment

import (
	"math/rand"

	"github.com/jsphweid/cpword/constants"
	"github.com/jsphweid/cpword/model"
	"github.com/jsphweid/cpword/util"
	"github.com/pkg/errors"
)

const (
	MinTransposition = 1
	MaxTransposition = 11

	MaxAccidental = 2
)

// TransposeBy shifts every pitch by shift semitones, clipping into the pitch
// domain. seq is left untouched.
func TransposeBy(seq model.Sequence, shift int) model.Sequence {
	res := seq.Clone()
	for i := range res {
		res[i].Pitch = util.Clip(res[i].Pitch+shift, constants.MinPitch, constants.MaxPitch)
	}
	return res
}

// Transpose moves the whole sequence up by a random 1-11 semitones.
func Transpose(seq model.Sequence, rng *rand.Rand) model.Sequence {
	shift := MinTransposition + rng.Intn(MaxTransposition-MinTransposition+1)
	return TransposeBy(seq, shift)
}

// Jitter gives each word, with probability p, a random accidental of -2..2
// semitones. A shift that would leave the pitch domain is skipped rather than
// clipped.
func Jitter(seq model.Sequence, p float64, rng *rand.Rand) (model.Sequence, error) {
	if p < 0 || p > 1 {
		return nil, errors.Wrapf(model.ErrConfiguration, "accidental probability %v not in [0,1]", p)
	}
	res := seq.Clone()
	if p == 0 {
		return res, nil
	}
	for i := range res {
		if rng.Float64() >= p {
			continue
		}
		shifted := res[i].Pitch + rng.Intn(2*MaxAccidental+1) - MaxAccidental
		if shifted < constants.MinPitch || shifted > constants.MaxPitch {
			continue
		}
		res[i].Pitch = shifted
	}
	return res, nil
}

type Augmenter struct {
	Transpositions int
	Accidentals    int
	AccidentalP    float64
}

func (a Augmenter) Validate() error {
	if a.Transpositions < 0 || a.Accidentals < 0 {
		return errors.Wrapf(model.ErrConfiguration, "negative repetition count (transpositions %d, accidentals %d)",
			a.Transpositions, a.Accidentals)
	}
	if a.AccidentalP < 0 || a.AccidentalP > 1 {
		return errors.Wrapf(model.ErrConfiguration, "accidental probability %v not in [0,1]", a.AccidentalP)
	}
	return nil
}

func (a Augmenter) GroupSize() int {
	return (1 + a.Transpositions) * (1 + a.Accidentals)
}

// Group expands seq into its augmentation group: the original and each of its
// transpositions, every one followed by its own accidental variants. The
// first element is always seq itself, copied.
func (a Augmenter) Group(seq model.Sequence, rng *rand.Rand) (model.Group, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	bases := []model.Sequence{seq.Clone()}
	for i := 0; i < a.Transpositions; i++ {
		bases = append(bases, Transpose(seq, rng))
	}

	group := make(model.Group, 0, a.GroupSize())
	for _, base := range bases {
		group = append(group, base)
		for i := 0; i < a.Accidentals; i++ {
			jittered, err := Jitter(base, a.AccidentalP, rng)
			if err != nil {
				return nil, err
			}
			group = append(group, jittered)
		}
	}
	return group, nil
}
