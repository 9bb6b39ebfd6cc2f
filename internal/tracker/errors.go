package tracker

import "errors"

var (
	ErrEmptyName       = errors.New("category name is empty")
	ErrUnknownCategory = errors.New("unknown category")
	ErrActiveSession   = errors.New("a session is already running")
	ErrNoActiveSession = errors.New("no active session")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionRunning  = errors.New("session is still running")
	ErrInvalidRange    = errors.New("end must be after start")
	ErrInvalidDocument = errors.New("invalid import document")
)
