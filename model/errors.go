package model

import "github.com/pkg/errors"

var (
	// source file is unreadable or not a usable SMF; the file is skipped
	ErrFileParse = errors.New("file parse error")
	// the designated track has no notes; the file is skipped silently
	ErrEmptyTrack = errors.New("empty track")
	// invalid static parameter; fail fast
	ErrConfiguration = errors.New("configuration error")
	// batch is not a whole number of augmentation groups
	ErrGroupAlignment = errors.New("group alignment error")
)
