package pipeline

import (
	"errors"
	"fmt"

	"github.com/johnquangdev/meeting-pipeline/internal/domain/entities"
	"github.com/johnquangdev/meeting-pipeline/internal/infrastructure/storage"
	"github.com/johnquangdev/meeting-pipeline/pkg/ai"
)

// Stage names a step of a pipeline run
type Stage string

const (
	StageLoad       Stage = "load"
	StageConfigure  Stage = "configure"
	StageAcquire    Stage = "acquire"
	StageTranscribe Stage = "transcribe"
	StageSummarize  Stage = "summarize"
	StagePersist    Stage = "persist"
)

// ErrorKind classifies why a stage failed
type ErrorKind string

const (
	KindConfiguration ErrorKind = "configuration"
	KindInput         ErrorKind = "input"
	KindProvider      ErrorKind = "provider"
	KindStorage       ErrorKind = "storage"
	KindStore         ErrorKind = "store"
	// KindInterrupted marks a run cancelled from outside; the meeting keeps its status
	KindInterrupted ErrorKind = "interrupted"
)

// StageError is returned by Process for every expected failure
type StageError struct {
	Stage Stage
	Kind  ErrorKind
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed (%s): %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Retryable reports whether dispatching the run again may succeed
func (e *StageError) Retryable() bool {
	switch e.Kind {
	case KindStore, KindInterrupted:
		return true
	case KindProvider:
		var perr *ai.ProviderError
		return errors.As(e.Err, &perr) && perr.Temporary()
	}
	return false
}

// classify derives the error kind for a failure inside stage
func classify(stage Stage, err error) ErrorKind {
	switch {
	case errors.Is(err, ai.ErrNotConfigured):
		return KindConfiguration
	case errors.Is(err, ai.ErrInputTooLarge), errors.Is(err, ai.ErrUnsupportedInput),
		errors.Is(err, entities.ErrNoRecording), errors.Is(err, entities.ErrMeetingNotFound),
		errors.Is(err, storage.ErrInvalidKey):
		return KindInput
	case errors.Is(err, storage.ErrObjectNotFound), errors.Is(err, storage.ErrBackendNotRegistered):
		return KindStorage
	}
	switch stage {
	case StageAcquire:
		return KindStorage
	case StageLoad, StagePersist:
		return KindStore
	}
	return KindProvider
}

func stageErr(stage Stage, err error) *StageError {
	return &StageError{Stage: stage, Kind: classify(stage, err), Err: err}
}

// failureReason is the short message stored on a failed meeting
func failureReason(err *StageError) string {
	reason := err.Error()
	if len(reason) > 1000 {
		reason = reason[:1000]
	}
	return reason
}
