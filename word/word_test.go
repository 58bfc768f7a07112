package word

import (
	"testing"

	"github.com/jsphweid/cpword/constants"
	"github.com/jsphweid/cpword/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var vocab = constants.DefaultVocabulary()

func TestBarOfTick(t *testing.T) {
	table := model.BarTickTable{0, 20, 40}

	assert := assert.New(t)
	assert.Equal(1, BarOfTick(0, table))
	assert.Equal(1, BarOfTick(15, table))
	assert.Equal(2, BarOfTick(20, table))
	assert.Equal(3, BarOfTick(40, table))
	assert.Equal(3, BarOfTick(55, table))
}

func TestBarOfTickIsMonotonic(t *testing.T) {
	table := model.BarTickTable{0, 300, 700, 900, 1300}
	prev := 0
	for tick := 0.0; tick < 1500; tick++ {
		bar := BarOfTick(tick, table)
		assert.GreaterOrEqual(t, bar, prev)
		prev = bar
	}
}

func TestPositionOfTick(t *testing.T) {
	table := model.BarTickTable{0, 20, 40}

	assert := assert.New(t)
	assert.Equal(0, PositionOfTick(0, 1, table, 5, vocab))
	// 4/20 * 16 = 3.2
	assert.Equal(3, PositionOfTick(4, 1, table, 5, vocab))
	assert.Equal(8, PositionOfTick(10, 1, table, 5, vocab))
	assert.Equal(15, PositionOfTick(19.99, 1, table, 5, vocab))
	assert.Equal(4, PositionOfTick(25, 2, table, 5, vocab))
	// last boundary opens an extrapolated bar
	assert.Equal(0, PositionOfTick(40, 3, table, 5, vocab))
	assert.Equal(8, PositionOfTick(50, 3, table, 5, vocab))
}

func TestPositionAlwaysInRange(t *testing.T) {
	table := model.BarTickTable{0, 300, 700, 900}
	for tick := 0.0; tick < 1200; tick += 7 {
		bar := BarOfTick(tick, table)
		p := PositionOfTick(tick, bar, table, 100, vocab)
		assert.GreaterOrEqual(t, p, 0)
		assert.Less(t, p, constants.NumPositionSubbeats)
	}
}

func TestDuration(t *testing.T) {
	cases := []struct {
		name     string
		start    int64
		end      int64
		expected int
	}{
		{"sixteenth", 0, 120, 4},
		{"eighth", 0, 240, 8},
		{"quarter", 480, 960, 16},
		{"rounds half up", 0, 45, 2},
		{"rounds down", 0, 14, 0},
		{"saturates", 0, 480 * 8, constants.NumDurationSubbeats - 1},
		{"zero length", 100, 100, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.expected, Duration(c.start, c.end, 480, vocab))
		})
	}
}

func TestQuantizerNewBarFlag(t *testing.T) {
	table := model.BarTickTable{0, 400, 800, 1200}
	q := NewQuantizer(table, 100, vocab)

	notes := []model.RawNote{
		{OnsetTick: 0, EndTick: 100, Pitch: 60},
		{OnsetTick: 100, EndTick: 200, Pitch: 62},
		{OnsetTick: 400, EndTick: 500, Pitch: 64},
		{OnsetTick: 1000, EndTick: 1100, Pitch: 65},
		{OnsetTick: 1100, EndTick: 1200, Pitch: 67},
	}
	var flags []int
	for _, n := range notes {
		w, err := q.Quantize(n)
		require.NoError(t, err)
		flags = append(flags, w.NewBar)
	}
	assert.Equal(t, []int{1, 0, 1, 1, 0}, flags)
}

func TestQuantizerRejectsWordOutsideVocabulary(t *testing.T) {
	// no position slots, so even a clipped position has nowhere to go
	small := vocab
	small.NumPositionSubbeats = 0
	q := NewQuantizer(model.BarTickTable{0, 400}, 100, small)

	_, err := q.Quantize(model.RawNote{OnsetTick: 0, EndTick: 100, Pitch: 60})
	assert.True(t, errors.Is(err, model.ErrConfiguration))

	_, err = Assemble(model.Score{
		Resolution: 100,
		Notes:      []model.RawNote{{OnsetTick: 0, EndTick: 100, Pitch: 60}},
		EndTick:    400,
	}, small)
	assert.True(t, errors.Is(err, model.ErrConfiguration))
}

func TestAssemble(t *testing.T) {
	score := model.Score{
		Resolution: 100,
		TimeSignatures: []model.TimeSignatureChange{
			{Numerator: 3, Denominator: 4, OnsetTick: 0},
		},
		Notes: []model.RawNote{
			{OnsetTick: 0, EndTick: 100, Pitch: 60, Velocity: 90},
			{OnsetTick: 150, EndTick: 300, Pitch: 62, Velocity: 90},
			{OnsetTick: 300, EndTick: 600, Pitch: 64, Velocity: 90},
		},
	}
	seq, err := Assemble(score, vocab)
	require.NoError(t, err)

	assert.Equal(t, model.Sequence{
		{NewBar: 1, Position: 0, Pitch: 60, Duration: 16},
		{NewBar: 0, Position: 8, Pitch: 62, Duration: 24},
		{NewBar: 1, Position: 0, Pitch: 64, Duration: 48},
	}, seq)
	for _, w := range seq {
		assert.NoError(t, w.Validate(vocab))
	}
}

func TestAssembleEmptyTrack(t *testing.T) {
	_, err := Assemble(model.Score{Resolution: 480}, vocab)
	assert.True(t, errors.Is(err, model.ErrEmptyTrack))
}

func TestAssembleBadResolution(t *testing.T) {
	score := model.Score{Notes: []model.RawNote{{OnsetTick: 0, EndTick: 10, Pitch: 60}}}
	_, err := Assemble(score, vocab)
	assert.True(t, errors.Is(err, model.ErrFileParse))
}
