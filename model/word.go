package model

import (
	"fmt"

	"github.com/jsphweid/cpword/constants"
	"github.com/pkg/errors"
)

// Word is one compound word: a quantized note event.
type Word struct {
	NewBar   int
	Position int
	Pitch    int
	Duration int
}

// NewWord builds a Word and rejects any field outside the vocabulary.
func NewWord(newBar, position, pitch, duration int, v constants.Vocabulary) (Word, error) {
	w := Word{NewBar: newBar, Position: position, Pitch: pitch, Duration: duration}
	if err := w.Validate(v); err != nil {
		return Word{}, err
	}
	return w, nil
}

func (w Word) Validate(v constants.Vocabulary) error {
	switch {
	case w.NewBar != 0 && w.NewBar != 1:
		return errors.Errorf("new bar flag %d not in {0,1}", w.NewBar)
	case w.Position < 0 || w.Position >= v.NumPositionSubbeats:
		return errors.Errorf("position %d not in [0,%d)", w.Position, v.NumPositionSubbeats)
	case w.Pitch < v.MinPitch || w.Pitch > v.MaxPitch:
		return errors.Errorf("pitch %d not in [%d,%d]", w.Pitch, v.MinPitch, v.MaxPitch)
	case w.Duration < 0 || w.Duration >= v.NumDurationSubbeats:
		return errors.Errorf("duration %d not in [0,%d)", w.Duration, v.NumDurationSubbeats)
	}
	return nil
}

// PadWord fills the unused tail of a padded row. Every field sits just outside
// its valid range.
func PadWord(v constants.Vocabulary) Word {
	return Word{
		NewBar:   constants.BarPadToken,
		Position: v.PositionPad(),
		Pitch:    v.PitchPad(),
		Duration: v.DurationPad(),
	}
}

func (w Word) IsBarStart() bool {
	return w.NewBar == 1
}

func (w Word) Array() [4]int {
	return [4]int{w.NewBar, w.Position, w.Pitch, w.Duration}
}

func (w Word) String() string {
	return fmt.Sprintf("(%d, %d, %d, %d)", w.NewBar, w.Position, w.Pitch, w.Duration)
}

type Sequence []Word

// Clone returns a copy that shares nothing with s.
func (s Sequence) Clone() Sequence {
	if s == nil {
		return nil
	}
	res := make(Sequence, len(s))
	copy(res, s)
	return res
}

func (s Sequence) Pitches() []int {
	res := make([]int, len(s))
	for i, w := range s {
		res[i] = w.Pitch
	}
	return res
}

// Group is an augmentation group. Index 0 is always the untouched original.
type Group []Sequence
