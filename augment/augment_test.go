package augment

import (
	"math/rand"
	"testing"

	"github.com/jsphweid/cpword/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequenceOf(pitches ...int) model.Sequence {
	var seq model.Sequence
	for i, p := range pitches {
		seq = append(seq, model.Word{NewBar: 1 - i%2, Position: i % 16, Pitch: p, Duration: 5})
	}
	return seq
}

func TestTransposeBy(t *testing.T) {
	seq := sequenceOf(4, 7)
	res := TransposeBy(seq, 3)

	assert := assert.New(t)
	assert.Equal([]int{7, 10}, res.Pitches())
	assert.Equal([]int{4, 7}, seq.Pitches())
	assert.Equal(seq[0].Position, res[0].Position)
	assert.Equal(seq[1].Duration, res[1].Duration)
}

func TestTransposeByClips(t *testing.T) {
	res := TransposeBy(sequenceOf(127, 7, 125), 4)
	assert.Equal(t, []int{127, 11, 127}, res.Pitches())
}

func TestTransposeRange(t *testing.T) {
	rng := rand.New(rand.NewSource(24))
	seq := sequenceOf(0, 60, 120, 127)
	seen := map[int]bool{}
	for i := 0; i < 500; i++ {
		res := Transpose(seq, rng)
		require.Len(t, res, len(seq))
		shift := res[1].Pitch - seq[1].Pitch
		assert.GreaterOrEqual(t, shift, MinTransposition)
		assert.LessOrEqual(t, shift, MaxTransposition)
		seen[shift] = true
		for _, w := range res {
			assert.GreaterOrEqual(t, w.Pitch, 0)
			assert.LessOrEqual(t, w.Pitch, 127)
		}
	}
	assert.Len(t, seen, MaxTransposition-MinTransposition+1)
}

func TestJitterZeroIsIdentity(t *testing.T) {
	seq := sequenceOf(60, 62, 64, 65, 67)
	res, err := Jitter(seq, 0, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, seq, res)
}

func TestJitterBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	seq := sequenceOf(0, 1, 60, 126, 127, 64, 64, 64)
	for i := 0; i < 200; i++ {
		res, err := Jitter(seq, 1, rng)
		require.NoError(t, err)
		require.Len(t, res, len(seq))
		for j := range res {
			diff := res[j].Pitch - seq[j].Pitch
			assert.GreaterOrEqual(t, diff, -MaxAccidental)
			assert.LessOrEqual(t, diff, MaxAccidental)
			assert.GreaterOrEqual(t, res[j].Pitch, 0)
			assert.LessOrEqual(t, res[j].Pitch, 127)
			assert.Equal(t, seq[j].Position, res[j].Position)
		}
	}
}

func TestJitterIsReproducible(t *testing.T) {
	seq := sequenceOf(60, 62, 64, 65, 67, 69, 71, 72)
	a, _ := Jitter(seq, 0.5, rand.New(rand.NewSource(3)))
	b, _ := Jitter(seq, 0.5, rand.New(rand.NewSource(3)))
	assert.Equal(t, a, b)
}

func TestJitterBadProbability(t *testing.T) {
	_, err := Jitter(sequenceOf(60), 1.5, rand.New(rand.NewSource(1)))
	assert.True(t, errors.Is(err, model.ErrConfiguration))
}

func TestGroup(t *testing.T) {
	seq := sequenceOf(60, 62, 64)
	a := Augmenter{Transpositions: 1, Accidentals: 1, AccidentalP: 0}
	group, err := a.Group(seq, rand.New(rand.NewSource(24)))
	require.NoError(t, err)

	assert := assert.New(t)
	require.Len(t, group, 4)
	assert.Equal(4, a.GroupSize())
	assert.Equal(seq, group[0])
	// p = 0 makes each accidental copy equal its base
	assert.Equal(group[0], group[1])
	assert.Equal(group[2], group[3])
	shift := group[2][0].Pitch - seq[0].Pitch
	assert.Equal([]int{60 + shift, 62 + shift, 64 + shift}, group[2].Pitches())
}

func TestGroupDoesNotMutateSource(t *testing.T) {
	seq := sequenceOf(60, 62, 64)
	before := seq.Clone()
	a := Augmenter{Transpositions: 2, Accidentals: 2, AccidentalP: 1}
	group, err := a.Group(seq, rand.New(rand.NewSource(5)))
	require.NoError(t, err)

	assert.Len(t, group, a.GroupSize())
	assert.Equal(t, before, seq)
	group[0][0].Pitch = 0
	assert.Equal(t, 60, seq[0].Pitch)
}

func TestGroupOriginalOnly(t *testing.T) {
	seq := sequenceOf(60)
	group, err := Augmenter{}.Group(seq, rand.New(rand.NewSource(5)))
	require.NoError(t, err)
	assert.Equal(t, model.Group{seq}, group)
}

func TestGroupBadConfig(t *testing.T) {
	_, err := Augmenter{Transpositions: -1}.Group(sequenceOf(60), rand.New(rand.NewSource(5)))
	assert.True(t, errors.Is(err, model.ErrConfiguration))
}
