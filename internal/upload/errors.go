package upload

import (
	"errors"
	"fmt"
)

// Kind classifies every failure the coordinator reports.
type Kind string

const (
	KindInvalidArgument          Kind = "InvalidArgument"
	KindRemoteAllocationFailed   Kind = "RemoteAllocationFailed"
	KindRemoteVerificationFailed Kind = "RemoteVerificationFailed"
	KindRemoteUpdateFailed       Kind = "RemoteUpdateFailed"
	KindRemoteTimeout            Kind = "RemoteTimeout"
	KindUnknownVideoID           Kind = "UnknownVideoId"
	KindSessionNotFound          Kind = "SessionNotFound"
	KindInvalidStateTransition   Kind = "InvalidStateTransition"
	KindNonMonotonicProgress     Kind = "NonMonotonicProgress"
	KindUploadIncomplete         Kind = "UploadIncomplete"
	KindConcurrentModification   Kind = "ConcurrentModification"
)

// Error is returned by every Coordinator operation. Sentinels below match any
// Error of the same kind through errors.Is.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

var (
	ErrInvalidArgument          = &Error{Kind: KindInvalidArgument}
	ErrRemoteAllocationFailed   = &Error{Kind: KindRemoteAllocationFailed}
	ErrRemoteVerificationFailed = &Error{Kind: KindRemoteVerificationFailed}
	ErrRemoteUpdateFailed       = &Error{Kind: KindRemoteUpdateFailed}
	ErrRemoteTimeout            = &Error{Kind: KindRemoteTimeout}
	ErrUnknownVideoID           = &Error{Kind: KindUnknownVideoID}
	ErrSessionNotFound          = &Error{Kind: KindSessionNotFound}
	ErrInvalidStateTransition   = &Error{Kind: KindInvalidStateTransition}
	ErrNonMonotonicProgress     = &Error{Kind: KindNonMonotonicProgress}
	ErrUploadIncomplete         = &Error{Kind: KindUploadIncomplete}
	ErrConcurrentModification   = &Error{Kind: KindConcurrentModification}
)

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Msg == "" && t.Err == nil
}

func newError(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind carried by err, or "" for errors that did not come
// from the coordinator (storage outages, for instance).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
