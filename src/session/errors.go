package session

import (
	"errors"
	"fmt"

	"github.com/elee1766/playground/src/chat"
)

var (
	// ErrBlankMessage rejects a send whose text is empty or whitespace only.
	ErrBlankMessage = errors.New("message is blank")

	// ErrSendInProgress rejects a send while another one is pending.
	ErrSendInProgress = errors.New("a message is already being sent")

	// ErrEmptyConversationExists rejects creating a conversation while the
	// active one has no messages yet.
	ErrEmptyConversationExists = errors.New("active conversation is still empty")
)

// Kind classifies why an operation failed.
type Kind int

const (
	// KindTransport means no server opinion was obtained.
	KindTransport Kind = iota
	// KindServerRejection means the server answered with an error.
	KindServerRejection
	// KindValidation means the request was rejected locally.
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindServerRejection:
		return "server_rejection"
	case KindValidation:
		return "validation"
	default:
		return "transport"
	}
}

// OpError reports a failed or degraded session operation.
type OpError struct {
	Op   string
	Kind Kind
	// Degraded is set when the operation fell back to local data instead of
	// failing outright.
	Degraded bool
	Err      error
}

func (e *OpError) Error() string {
	if e.Degraded {
		return fmt.Sprintf("%s (degraded): %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

func opError(op string, err error) *OpError {
	return &OpError{Op: op, Kind: classify(err), Err: err}
}

func rejected(op string, err error) *OpError {
	return &OpError{Op: op, Kind: KindValidation, Err: err}
}

func classify(err error) Kind {
	switch {
	case errors.Is(err, ErrBlankMessage), errors.Is(err, ErrSendInProgress), errors.Is(err, ErrEmptyConversationExists):
		return KindValidation
	case chat.IsServerRejection(err):
		return KindServerRejection
	default:
		return KindTransport
	}
}

// IsValidation reports whether err is a local rejection that changed nothing.
func IsValidation(err error) bool {
	var opErr *OpError
	return errors.As(err, &opErr) && opErr.Kind == KindValidation
}

// IsDegraded reports whether err describes a fallback rather than a failure.
func IsDegraded(err error) bool {
	var opErr *OpError
	return errors.As(err, &opErr) && opErr.Degraded
}
