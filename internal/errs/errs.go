// Package errs holds the error kinds shared by the engine, registry, manager and
// the two network front ends. Each kind is a small struct type with a constructor
// and an IsXxx helper; helpers use errors.As so fmt.Errorf("...: %w") wrapping
// keeps the kind visible.
package errs

import (
	"errors"
	"fmt"
)

type configError struct{ msg string }

func (e configError) Error() string { return "config error: " + e.msg }

// Config reports an invalid configuration document or value.
func Config(format string, args ...any) error {
	return configError{msg: fmt.Sprintf(format, args...)}
}

// IsConfig reports whether err is a configuration error.
func IsConfig(err error) bool {
	var e configError
	return errors.As(err, &e)
}

type modelNotFoundError struct{ name string }

func (e modelNotFoundError) Error() string { return "model not found: " + e.name }

// ModelNotFound is returned when a model name is not loaded (or not configured).
func ModelNotFound(name string) error { return modelNotFoundError{name: name} }

// IsModelNotFound reports whether err indicates a missing model.
func IsModelNotFound(err error) bool {
	var e modelNotFoundError
	return errors.As(err, &e)
}

type modelLoadError struct {
	name  string
	cause error
}

func (e modelLoadError) Error() string {
	return fmt.Sprintf("failed to load model %s: %v", e.name, e.cause)
}

func (e modelLoadError) Unwrap() error { return e.cause }

// ModelLoad wraps a construction or initialization failure of the named model.
func ModelLoad(name string, cause error) error {
	return modelLoadError{name: name, cause: cause}
}

// IsModelLoad reports whether err is a model load failure.
func IsModelLoad(err error) bool {
	var e modelLoadError
	return errors.As(err, &e)
}

type inferenceError struct {
	msg   string
	cause error
}

func (e inferenceError) Error() string {
	if e.cause != nil {
		return "inference error: " + e.msg + ": " + e.cause.Error()
	}
	return "inference error: " + e.msg
}

func (e inferenceError) Unwrap() error { return e.cause }

// Inference reports a failure inside the tokenize/run/pool/normalize pipeline.
func Inference(msg string, cause error) error {
	return inferenceError{msg: msg, cause: cause}
}

// IsInference reports whether err is an inference failure.
func IsInference(err error) bool {
	var e inferenceError
	return errors.As(err, &e)
}

type invalidInputError struct{ msg string }

func (e invalidInputError) Error() string { return "invalid input: " + e.msg }

// InvalidInput reports a caller error such as an empty batch.
func InvalidInput(msg string) error { return invalidInputError{msg: msg} }

// IsInvalidInput reports whether err is an input validation failure.
func IsInvalidInput(err error) bool {
	var e invalidInputError
	return errors.As(err, &e)
}

// dependencyUnavailableError signals a runtime that was not compiled in
// (missing build tag) or a native library that could not be loaded.
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string { return e.msg }

// DependencyUnavailable constructs a dependencyUnavailableError.
func DependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing runtime dependency.
func IsDependencyUnavailable(err error) bool {
	var e dependencyUnavailableError
	return errors.As(err, &e)
}

type unavailableError struct {
	name  string
	cause error
}

func (e unavailableError) Error() string {
	return fmt.Sprintf("model %s unavailable: %v", e.name, e.cause)
}

func (e unavailableError) Unwrap() error { return e.cause }

// Unavailable marks a loaded model that is temporarily refusing work,
// for example while its circuit breaker is open.
func Unavailable(name string, cause error) error {
	return unavailableError{name: name, cause: cause}
}

// IsUnavailable reports whether err marks a temporarily unavailable model.
func IsUnavailable(err error) bool {
	var e unavailableError
	return errors.As(err, &e)
}
