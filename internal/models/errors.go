package models

import (
	"errors"
	"fmt"
)

var (
	ErrFetch   = errors.New("fetch failed")
	ErrData    = errors.New("data error")
	ErrModel   = errors.New("model error")
	ErrPublish = errors.New("publish failed")
)

// FetchError reports that the observation source was unreachable or returned
// an incomplete payload.
type FetchError struct {
	Stage string
	Err   error
}

func (e *FetchError) Error() string        { return describe(e.Stage, ErrFetch, e.Err) }
func (e *FetchError) Unwrap() error        { return e.Err }
func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// DataError reports an unreadable, malformed or empty historical table.
type DataError struct {
	Stage string
	Err   error
}

func (e *DataError) Error() string        { return describe(e.Stage, ErrData, e.Err) }
func (e *DataError) Unwrap() error        { return e.Err }
func (e *DataError) Is(target error) bool { return target == ErrData }

// ModelError reports a training or prediction failure.
type ModelError struct {
	Stage string
	Err   error
}

func (e *ModelError) Error() string        { return describe(e.Stage, ErrModel, e.Err) }
func (e *ModelError) Unwrap() error        { return e.Err }
func (e *ModelError) Is(target error) bool { return target == ErrModel }

// PublishError is never fatal; it is attached to the run report as a warning.
type PublishError struct {
	Stage string
	Err   error
}

func (e *PublishError) Error() string        { return describe(e.Stage, ErrPublish, e.Err) }
func (e *PublishError) Unwrap() error        { return e.Err }
func (e *PublishError) Is(target error) bool { return target == ErrPublish }

func NewFetchError(stage string, format string, args ...interface{}) error {
	return &FetchError{Stage: stage, Err: fmt.Errorf(format, args...)}
}

func NewDataError(stage string, format string, args ...interface{}) error {
	return &DataError{Stage: stage, Err: fmt.Errorf(format, args...)}
}

func NewModelError(stage string, format string, args ...interface{}) error {
	return &ModelError{Stage: stage, Err: fmt.Errorf(format, args...)}
}

func NewPublishError(stage string, format string, args ...interface{}) error {
	return &PublishError{Stage: stage, Err: fmt.Errorf(format, args...)}
}

func describe(stage string, kind, cause error) string {
	if cause == nil {
		return fmt.Sprintf("%s: %v", stage, kind)
	}
	return fmt.Sprintf("%s: %v: %v", stage, kind, cause)
}
