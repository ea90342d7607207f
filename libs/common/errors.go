package common

import (
	"fmt"
	"runtime"
	"strings"
)

// Error is an error carrying the call-site trail it was raised through.
// It is used for failures that should never happen given upstream checks.
type Error interface {
	Error() string
	Unwrap() error
	Stacktrace() Error
	Trace(offset int, format string, args ...interface{}) Error
	Data() interface{}
}

type cmnError struct {
	data       interface{}    // associated data
	cause      error          // wrapped error, may be nil
	msgtraces  []msgtraceItem // all messages traced
	stacktrace []uintptr      // first stack trace
}

type msgtraceItem struct {
	pc  uintptr
	msg string
}

// FmtError is the Data of errors created with NewError.
type FmtError struct {
	format string
	args   []interface{}
}

func (fe FmtError) String() string {
	return fmt.Sprintf(fe.format, fe.args...)
}

// NewError returns an Error with a formatted message.
func NewError(format string, args ...interface{}) Error {
	return &cmnError{data: FmtError{format, args}}
}

// ErrorWrap wraps cause with a formatted message. Returns nil if cause is nil.
func ErrorWrap(cause error, format string, args ...interface{}) Error {
	if cause == nil {
		return nil
	}
	return &cmnError{data: FmtError{format, args}, cause: cause}
}

func (err *cmnError) Error() string {
	var b strings.Builder
	switch d := err.data.(type) {
	case FmtError:
		b.WriteString(d.String())
	default:
		fmt.Fprintf(&b, "%v", d)
	}
	if err.cause != nil {
		b.WriteString(": ")
		b.WriteString(err.cause.Error())
	}
	return b.String()
}

// Unwrap returns the wrapped error, if any.
func (err *cmnError) Unwrap() error {
	return err.cause
}

// Stacktrace captures a stacktrace if one was not already captured.
func (err *cmnError) Stacktrace() Error {
	if err.stacktrace == nil {
		err.stacktrace = captureStacktrace(3, 32)
	}
	return err
}

// Trace adds the caller's pc and msg to the error.
// Set offset=0 unless wrapped with some function, then offset > 0.
func (err *cmnError) Trace(offset int, format string, args ...interface{}) Error {
	pc, _, _, _ := runtime.Caller(offset + 1)
	err.msgtraces = append(err.msgtraces, msgtraceItem{
		pc:  pc,
		msg: fmt.Sprintf(format, args...),
	})
	return err
}

// Data returns the payload used for error switching.
func (err *cmnError) Data() interface{} {
	return err.data
}

// Format prints the message traces and the stacktrace under %+v.
func (err *cmnError) Format(s fmt.State, verb rune) {
	if verb != 'v' || !s.Flag('+') {
		fmt.Fprint(s, err.Error())
		return
	}
	fmt.Fprintf(s, "%s\n", err.Error())
	for _, mt := range err.msgtraces {
		fn := runtime.FuncForPC(mt.pc)
		if fn == nil {
			fmt.Fprintf(s, "  - %s\n", mt.msg)
			continue
		}
		file, line := fn.FileLine(mt.pc)
		fmt.Fprintf(s, "  - %s:%d %s\n", file, line, mt.msg)
	}
	frames := runtime.CallersFrames(err.stacktrace)
	for {
		f, more := frames.Next()
		if f.Function != "" {
			fmt.Fprintf(s, "    %s\n      %s:%d\n", f.Function, f.File, f.Line)
		}
		if !more {
			break
		}
	}
}

func captureStacktrace(offset int, depth int) []uintptr {
	pcs := make([]uintptr, depth)
	n := runtime.Callers(offset, pcs)
	return pcs[0:n]
}

// PanicCrisis panics on data corruption or operating system failure.
// In a correct/healthy system, these should never fire.
func PanicCrisis(v interface{}) {
	panic(fmt.Sprintf("Panicked on a Crisis: %v", v))
}
