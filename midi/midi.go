package midi

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/jsphweid/cpword/model"
	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2/smf"
)

func ReadMidiFile(filepath string) (*smf.SMF, error) {
	dat, err := os.ReadFile(filepath)
	if err != nil {
		return nil, errors.Wrapf(model.ErrFileParse, "reading midi file: %v", err)
	}
	return ReadMidi(bytes.NewReader(dat))
}

func ReadMidi(r io.Reader) (s *smf.SMF, e error) {
	// handle panics
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if r := recover(); r != nil {
			s = nil
			e = errors.Wrapf(model.ErrFileParse, "parsing midi file: %v", r)
		}
	}()

	res, err := smf.ReadFrom(r)
	if err != nil {
		return nil, errors.Wrapf(model.ErrFileParse, "parsing midi file: %v", err)
	}
	return res, nil
}

// ReadScore parses a file and extracts the notes of its track-th note bearing
// track.
func ReadScore(filepath string, track int) (model.Score, error) {
	s, err := ReadMidiFile(filepath)
	if err != nil {
		return model.Score{}, err
	}
	return ToScore(s, track)
}

type noteKey struct {
	channel uint8
	key     uint8
}

type pendingNote struct {
	onset    int64
	velocity uint8
}

// ToScore pulls the designated track's notes, every time signature change
// and the file's resolution out of s. track counts only tracks that contain
// at least one note, so 0 is the first instrument.
func ToScore(s *smf.SMF, track int) (model.Score, error) {
	var score model.Score
	if track < 0 {
		return score, errors.Wrapf(model.ErrConfiguration, "track index %d is negative", track)
	}

	ticks, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return score, errors.Wrapf(model.ErrFileParse, "unsupported time format %v", s.TimeFormat)
	}
	score.Resolution = int(ticks.Resolution())
	if score.Resolution == 0 {
		return score, errors.Wrap(model.ErrFileParse, "zero ticks per quarter note")
	}

	var noteTracks [][]model.RawNote
	for _, events := range s.Tracks {
		notes, sigs, end := readTrack(events)
		score.TimeSignatures = append(score.TimeSignatures, sigs...)
		if end > score.EndTick {
			score.EndTick = end
		}
		if len(notes) > 0 {
			noteTracks = append(noteTracks, notes)
		}
	}

	sort.SliceStable(score.TimeSignatures, func(i, j int) bool {
		return score.TimeSignatures[i].OnsetTick < score.TimeSignatures[j].OnsetTick
	})

	if track < len(noteTracks) {
		score.Notes = noteTracks[track]
	}
	return score, nil
}

func readTrack(events smf.Track) ([]model.RawNote, []model.TimeSignatureChange, int64) {
	var notes []model.RawNote
	var sigs []model.TimeSignatureChange
	pressed := make(map[noteKey][]pendingNote)

	var absTicks int64
	for _, event := range events {
		absTicks += int64(event.Delta)
		var channel, key, velocity uint8
		var num, denom, clocksPerClick, demiSemiQuavers uint8
		switch {
		case event.Message.GetNoteStart(&channel, &key, &velocity):
			k := noteKey{channel, key}
			pressed[k] = append(pressed[k], pendingNote{onset: absTicks, velocity: velocity})
		case event.Message.GetNoteEnd(&channel, &key):
			k := noteKey{channel, key}
			// first on, first off; a stray note off is ignored
			if len(pressed[k]) == 0 {
				continue
			}
			p := pressed[k][0]
			pressed[k] = pressed[k][1:]
			notes = append(notes, model.RawNote{
				OnsetTick: p.onset,
				EndTick:   absTicks,
				Pitch:     key,
				Velocity:  p.velocity,
			})
		case event.Message.GetMetaTimeSig(&num, &denom, &clocksPerClick, &demiSemiQuavers):
			sigs = append(sigs, model.TimeSignatureChange{
				Numerator:   int(num),
				Denominator: int(denom),
				OnsetTick:   absTicks,
			})
		}
	}

	// notes complete in note-off order, but the quantizer wants onset order
	sort.SliceStable(notes, func(i, j int) bool {
		if notes[i].OnsetTick != notes[j].OnsetTick {
			return notes[i].OnsetTick < notes[j].OnsetTick
		}
		return notes[i].Pitch < notes[j].Pitch
	})
	return notes, sigs, absTicks
}

// Describe is a one line summary used by inspect.
func Describe(score model.Score) string {
	return fmt.Sprintf("resolution=%d notes=%d time_signatures=%d end_tick=%d",
		score.Resolution, len(score.Notes), len(score.TimeSignatures), score.EndTick)
}
