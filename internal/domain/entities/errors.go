package entities

import "errors"

// Domain errors
var (
	// Meeting errors
	ErrMeetingNotFound   = errors.New("meeting not found")
	ErrInvalidTransition = errors.New("invalid meeting status transition")
	ErrNoRecording       = errors.New("meeting has no recording")

	// Action item errors
	ErrActionItemNotFound   = errors.New("action item not found")
	ErrActionItemNotPending = errors.New("action item already processed")
)
