package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Pipeline error taxonomy. Stage failures are never retried internally; they
// surface to the caller with the original message preserved via wrapping.
var (
	ErrNoUserQuestion        = errors.New("history contains no user question")
	ErrQueryGenerationFailed = errors.New("failed to generate search query")
	ErrAnswerParsingFailed   = errors.New("failed to parse model answer")
	ErrFollowupParsingFailed = errors.New("failed to parse follow-up questions")
	ErrUnsupportedFileType   = errors.New("unsupported file type")
	ErrIndexUnavailable      = errors.New("search index unavailable")
	ErrModelUnavailable      = errors.New("language model unavailable")
)

// pipelineError tags a backend failure with its stage sentinel. The caller's
// own cancellation is not a backend failure and surfaces unchanged.
func pipelineError(sentinel, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", sentinel, err)
}

// FileError is one per-file ingestion failure inside a batch run.
type FileError struct {
	File string
	Err  error
}

func (e FileError) Error() string { return fmt.Sprintf("%s: %v", e.File, e.Err) }

func (e FileError) Unwrap() error { return e.Err }

// IngestBatchError aggregates per-file failures from one batch run. Failures
// are collected as files are processed and only raised together after every
// chunk has completed, so one bad file never blocks the rest.
type IngestBatchError struct {
	Failures []FileError
}

func (e *IngestBatchError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = f.Error()
	}
	return fmt.Sprintf("%d file(s) failed: %s", len(e.Failures), strings.Join(parts, "; "))
}
