package lambdamux

import "strings"

// ErrorKind classifies a dispatch failure.
type ErrorKind string

const (
	// ErrorKindNoSource: the payload did not structurally match any
	// known envelope shape, or extraction from the matched shape failed.
	ErrorKindNoSource ErrorKind = "no_source"

	// ErrorKindNoRoute: classification succeeded but no registered
	// route matched any extracted key.
	ErrorKindNoRoute ErrorKind = "no_route"

	// ErrorKindUnmarshal: a route matched but the record group could
	// not be decoded into the handler's input type. The handler was
	// not called.
	ErrorKindUnmarshal ErrorKind = "unmarshal"

	// ErrorKindHandler: the handler returned an application error.
	ErrorKindHandler ErrorKind = "handler"
)

// Error is the failure outcome of a dispatch. Source and Key are filled
// in where known so that routing misconfiguration, payload malformation,
// and handler bugs can be told apart from the runtime's error log alone.
//
// Every failure surfaces to the caller unrecovered; the mux performs no
// retries and no suppression, and a failed invocation leaves no state
// behind for the next one.
type Error struct {
	Kind   ErrorKind
	Source string
	Key    string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("lambdamux: ")
	b.WriteString(string(e.Kind))
	if e.Source != "" {
		b.WriteString(" source=")
		b.WriteString(e.Source)
	}
	if e.Key != "" {
		b.WriteString(" key=")
		b.WriteString(e.Key)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }
