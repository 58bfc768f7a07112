package sample

import (
	"sort"

	"github.com/jsphweid/cpword/constants"
	"github.com/jsphweid/cpword/model"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const defaultVelocity = 100

type event struct {
	tick int64
	// meta < note off < note on at the same tick
	order int
	msg   []byte
}

// Create writes a single track SMF holding score's time signatures and notes.
func Create(score model.Score) *smf.SMF {
	res := smf.New()
	res.TimeFormat = smf.MetricTicks(score.Resolution)

	var events []event
	for _, ts := range score.TimeSignatures {
		events = append(events, event{
			tick:  ts.OnsetTick,
			order: 0,
			msg:   smf.MetaMeter(uint8(ts.Numerator), uint8(ts.Denominator)),
		})
	}
	for _, n := range score.Notes {
		vel := n.Velocity
		if vel == 0 {
			vel = defaultVelocity
		}
		events = append(events,
			event{tick: n.OnsetTick, order: 2, msg: midi.NoteOn(0, n.Pitch, vel)},
			event{tick: n.EndTick, order: 1, msg: midi.NoteOff(0, n.Pitch)},
		)
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return events[i].order < events[j].order
	})

	var track smf.Track
	var last int64
	for _, evt := range events {
		track.Add(uint32(evt.tick-last), evt.msg)
		last = evt.tick
	}
	var closeDelta uint32
	if score.EndTick > last {
		closeDelta = uint32(score.EndTick - last)
	}
	track.Close(closeDelta)
	res.Add(track)
	return res
}

// ToScore maps words back onto a 4/4 grid. Bar lengths and exact timing are
// not recoverable from words, so this is only a preview.
func ToScore(seq model.Sequence, resolution int, v constants.Vocabulary) model.Score {
	score := model.Score{Resolution: resolution}
	barLength := int64(constants.DefaultNumerator * resolution)
	bar := int64(-1)
	for _, w := range seq {
		if w.NewBar == 1 || bar < 0 {
			bar++
		}
		onset := bar*barLength + int64(w.Position)*barLength/int64(v.NumPositionSubbeats)
		end := onset + int64(w.Duration)*int64(resolution)/int64(v.DurationStepsPerQuarter)
		score.Notes = append(score.Notes, model.RawNote{
			OnsetTick: onset,
			EndTick:   end,
			Pitch:     uint8(w.Pitch),
			Velocity:  defaultVelocity,
		})
		if end > score.EndTick {
			score.EndTick = end
		}
	}
	return score
}

func Render(seq model.Sequence, resolution int, v constants.Vocabulary) *smf.SMF {
	return Create(ToScore(seq, resolution, v))
}
