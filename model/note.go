package model

type RawNote struct {
	OnsetTick int64
	EndTick   int64
	Pitch     uint8
	Velocity  uint8
}

type TimeSignatureChange struct {
	Numerator   int
	Denominator int
	OnsetTick   int64
}

// Score is everything the quantizer needs from one source file.
type Score struct {
	Notes          []RawNote
	TimeSignatures []TimeSignatureChange
	// ticks per quarter note
	Resolution int
	// last tick of any event in the file
	EndTick int64
}

// BarTickTable holds the tick at which each bar starts. Element 0 is always 0
// and values strictly increase.
type BarTickTable []float64
