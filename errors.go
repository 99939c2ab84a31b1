package dart

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every error returned by this package matches exactly one of
// them via errors.Is.
var (
	// ErrType means the operation is invalid for the value's runtime type, or an
	// argument has the wrong type.
	ErrType = errors.New("type error")

	// ErrState means the operation is invalid in the value's current state, e.g.
	// mutating a finalized value or using a released handle.
	ErrState = errors.New("state error")

	// ErrLogic means an argument has an invalid value, e.g. an out-of-bounds index.
	ErrLogic = errors.New("logic error")

	// ErrParse means malformed JSON text or a malformed binary buffer.
	ErrParse = errors.New("parse error")
)

type Error struct {
	Kind error
	Op   string
	Msg  string
	Err  error
}

func typeErrf(op, format string, args ...any) error {
	return &Error{ErrType, op, fmt.Sprintf(format, args...), nil}
}

func stateErrf(op, format string, args ...any) error {
	return &Error{ErrState, op, fmt.Sprintf(format, args...), nil}
}

func logicErrf(op, format string, args ...any) error {
	return &Error{ErrLogic, op, fmt.Sprintf(format, args...), nil}
}

func parseErrf(err error, format string, args ...any) error {
	return &Error{ErrParse, "parse", fmt.Sprintf(format, args...), err}
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Error() string {
	var buf strings.Builder
	buf.WriteString("dart: ")
	if e.Op != "" {
		buf.WriteString(e.Op)
		buf.WriteString(": ")
	}
	buf.WriteString(e.Kind.Error())
	if e.Msg != "" {
		buf.WriteString(": ")
		buf.WriteString(e.Msg)
	}
	if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}

// DataError reports a malformed binary buffer. It matches ErrParse.
type DataError struct {
	Data []byte
	Off  int
	Err  error
	Msg  string
}

func dataErrf(data []byte, off int, err error, format string, args ...any) error {
	return &DataError{data, off, err, fmt.Sprintf(format, args...)}
}

func (e *DataError) Is(target error) bool {
	return target == ErrParse
}

func (e *DataError) Unwrap() error {
	return e.Err
}

func (e *DataError) Error() string {
	const prefixLen = 64
	const suffixLen = 32
	n := len(e.Data)
	if n <= prefixLen+suffixLen {
		if e.Err != nil {
			return fmt.Sprintf("dart: %s at %d: %v: (%d) %x", e.Msg, e.Off, e.Err, n, e.Data)
		} else {
			return fmt.Sprintf("dart: %s at %d: (%d) %x", e.Msg, e.Off, n, e.Data)
		}
	} else {
		p, s := e.Data[:prefixLen], e.Data[n-suffixLen:]
		if e.Err != nil {
			return fmt.Sprintf("dart: %s at %d: %v: (%d) %x...%x", e.Msg, e.Off, e.Err, n, p, s)
		} else {
			return fmt.Sprintf("dart: %s at %d: (%d) %x...%x", e.Msg, e.Off, n, p, s)
		}
	}
}
