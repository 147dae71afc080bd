// Package failure classifies the errors that abort an evaluation run so the
// CLI can report them and pick an exit code per kind.
package failure

import (
	"fmt"

	"github.com/pkg/errors"
)

type Kind int

const (
	Unknown Kind = iota
	Config
	IO
	Preprocess
	Model
)

func (k Kind) String() string {
	switch k {
	case Config:
		return "config"
	case IO:
		return "io"
	case Preprocess:
		return "preprocess"
	case Model:
		return "model"
	default:
		return "unknown"
	}
}

// Error tags an underlying error with the stage that produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Format prints the wrapped error's stack trace for %+v.
func (e *Error) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprintf(s, "%s error: ", e.Kind)
			if e.Op != "" {
				fmt.Fprintf(s, "%s: ", e.Op)
			}
			fmt.Fprintf(s, "%+v", e.Err)
			return
		}
		fallthrough
	case 's':
		fmt.Fprint(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}

func wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	return &Error{Kind: kind, Op: op, Err: errors.WithStack(err)}
}

func ConfigError(op string, err error) error     { return wrap(Config, op, err) }
func IOError(op string, err error) error         { return wrap(IO, op, err) }
func PreprocessError(op string, err error) error { return wrap(Preprocess, op, err) }
func ModelError(op string, err error) error      { return wrap(Model, op, err) }

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch KindOf(err) {
	case Config:
		return 2
	case IO:
		return 3
	case Preprocess:
		return 4
	case Model:
		return 5
	default:
		return 1
	}
}
