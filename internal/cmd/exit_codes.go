package cmd

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/passdrive/passdrive-cli/internal/api"
)

// Exit codes for machine-readable failure classification.
// Scripts and agents can branch on these instead of parsing stderr.
const (
	exitOK        = 0 // success
	exitGeneric   = 1 // unclassified error
	exitUsage     = 2 // bad arguments or validation failure
	exitAuth      = 3 // authentication required or rejected
	exitNotFound  = 4 // resource does not exist
	exitForbidden = 5 // permission denied
	exitConflict  = 6 // conflict with current state
	exitServer    = 7 // server-side error
	exitNetwork   = 8 // network or timeout failure
)

// ExitCode classifies an error into a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return exitOK
	}

	var handled *handledError
	if errors.As(err, &handled) {
		return handled.exitCode
	}

	if structured := api.StructuredErrorFromError(err); structured != nil {
		switch structured.Code {
		case api.ErrUnauthorized:
			return exitAuth
		case api.ErrForbidden:
			return exitForbidden
		case api.ErrNotFound:
			return exitNotFound
		case api.ErrConflict:
			return exitConflict
		case api.ErrBadRequest, api.ErrValidation:
			return exitUsage
		case api.ErrServerError, api.ErrWriteFailed:
			return exitServer
		case api.ErrTimeout:
			return exitNetwork
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return exitNetwork
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return exitNetwork
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "network is unreachable"):
		return exitNetwork
	}

	return exitGeneric
}
