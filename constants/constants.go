package constants

import "os"

// GetDatasetRoot is the fallback dataset root when no config sets one.
func GetDatasetRoot() string {
	path := os.Getenv("DATASET_PATH")
	if path != "" {
		return path
	}
	return "./dataset/mono-midi-transposition-dataset"
}

// Wire format shared with the downstream encoder's vocabulary. These never vary
// per file or per dataset.
const (
	BarPadToken      = 2
	PositionPadToken = 16

	NumPositionSubbeats = 16
	// duration is measured in 1/16 of a quarter note and saturates at
	// NumDurationSubbeats-1
	NumDurationSubbeats     = 64
	DurationStepsPerQuarter = 16

	MinPitch = 0
	MaxPitch = 127

	PitchPadToken    = MaxPitch + 1
	DurationPadToken = NumDurationSubbeats

	MaxSequenceLength = 512

	// 4/4 unless a time signature change says otherwise
	DefaultNumerator   = 4
	DefaultDenominator = 4

	DefaultAccidentalP = 0.1
)

// Vocabulary is the quantization domain every word field is checked against.
type Vocabulary struct {
	NumPositionSubbeats     int
	NumDurationSubbeats     int
	DurationStepsPerQuarter int
	MinPitch                int
	MaxPitch                int
}

func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		NumPositionSubbeats:     NumPositionSubbeats,
		NumDurationSubbeats:     NumDurationSubbeats,
		DurationStepsPerQuarter: DurationStepsPerQuarter,
		MinPitch:                MinPitch,
		MaxPitch:                MaxPitch,
	}
}

func (v Vocabulary) PitchPad() int {
	return v.MaxPitch + 1
}

func (v Vocabulary) PositionPad() int {
	return v.NumPositionSubbeats
}

func (v Vocabulary) DurationPad() int {
	return v.NumDurationSubbeats
}
