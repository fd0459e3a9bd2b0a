package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure so callers can branch without inspecting messages.
type Kind int

const (
	KindInternal Kind = iota
	KindConfiguration
	KindNetwork
	KindValidation
	KindParsing
	KindAIProvider
	KindFileIO
)

// JSON-RPC error codes surfaced by the front door.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindNetwork:
		return "network"
	case KindValidation:
		return "validation"
	case KindParsing:
		return "parsing"
	case KindAIProvider:
		return "ai_provider"
	case KindFileIO:
		return "file_io"
	default:
		return "internal"
	}
}

// Error is the single concrete error type produced by the pipeline.
type Error struct {
	Kind     Kind
	Op       string
	Provider string
	Field    string
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Provider != "" {
		fmt.Fprintf(&b, "provider %s: ", e.Provider)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, "field %q: ", e.Field)
	}
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	} else {
		b.WriteString(e.Kind.String() + " error")
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with a kind and operation label.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a kinded error from a format string.
func Errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func Configuration(op, format string, args ...any) *Error {
	return Errorf(KindConfiguration, op, format, args...)
}

func Network(op string, err error) *Error {
	return New(KindNetwork, op, err)
}

// Validation reports a shape mismatch; field names the offending key when known.
func Validation(op, field, format string, args ...any) *Error {
	e := Errorf(KindValidation, op, format, args...)
	e.Field = field
	return e
}

func Parsing(op string, err error) *Error {
	return New(KindParsing, op, err)
}

// AIProvider is the terminal wrapper emitted once an invoker gives up on a provider.
func AIProvider(provider string, err error) *Error {
	return &Error{Kind: KindAIProvider, Op: "invoke", Provider: provider, Err: err}
}

func FileIO(op string, err error) *Error {
	return New(KindFileIO, op, err)
}

// KindOf returns the outermost kind in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether any error in err's chain carries kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}

// Retryable is true only for transient transport failures.
func Retryable(err error) bool {
	return KindOf(err) == KindNetwork
}

// RPCCode maps a kind to its stable JSON-RPC error code.
func RPCCode(kind Kind) int {
	switch kind {
	case KindConfiguration, KindValidation:
		return CodeInvalidRequest
	default:
		return CodeInternalError
	}
}
