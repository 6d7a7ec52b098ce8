package storage

import "errors"

var (
	// ErrUnknownRun is returned when a sample references a run that does not exist
	ErrUnknownRun = errors.New("unknown run")
	// ErrNegativeDuration is returned when a sample duration is below zero
	ErrNegativeDuration = errors.New("negative sample duration")
	// ErrUnsupportedDriver is returned by Open for drivers other than sqlite and postgres
	ErrUnsupportedDriver = errors.New("unsupported storage driver")
)
