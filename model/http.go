package model

type TokenizeResponse struct {
	Resolution int        `json:"resolution"`
	NumNotes   int        `json:"num_notes"`
	Words      [][4]int   `json:"words"`
	Chunks     [][][4]int `json:"chunks"`
	Dropped    int        `json:"dropped"`
}

type VocabResponse struct {
	NumPositionSubbeats     int    `json:"num_position_subbeats"`
	NumDurationSubbeats     int    `json:"num_duration_subbeats"`
	DurationStepsPerQuarter int    `json:"duration_steps_per_quarter"`
	PitchRange              [2]int `json:"pitch_range"`
	PadWord                 [4]int `json:"pad_word"`
	MaxSequenceLength       int    `json:"max_sequence_length"`
}

type ErrorResponse struct {
	Error string `json:"detail"`
}
