package main

import (
	"context"
	"errors"

	"github.com/elee1766/playground/src/apiclient"
	"github.com/elee1766/playground/src/config"
	"github.com/elee1766/playground/src/session"
)

// Exit codes following standard conventions
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error
	ExitUsage       = 2 // Usage error
	ExitConfig      = 3 // Configuration error
	ExitNetwork     = 6 // Network error
	ExitInterrupted = 8 // Interrupted by user
)

// usageError marks a bad argument that kong could not catch.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

// configError wraps failures while loading configuration.
type configError struct {
	err error
}

func (e *configError) Error() string { return "configuration: " + e.err.Error() }

func (e *configError) Unwrap() error { return e.err }

// exitCode determines the appropriate exit code for an error
func exitCode(err error) int {
	var usage *usageError
	var cfgErr *configError
	var invalid config.ValidationError

	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &cfgErr), errors.As(err, &invalid):
		return ExitConfig
	case errors.As(err, &usage), session.IsValidation(err):
		return ExitUsage
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case apiclient.IsTransport(err):
		return ExitNetwork
	default:
		return ExitError
	}
}
