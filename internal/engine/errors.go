package engine

import (
	"errors"
	"fmt"
)

// Kind classifies a rejected action. Every rejection leaves the match
// untouched; none of these are fatal.
type Kind int

const (
	// KindConfig covers invalid feature names, invalid role names, illegal
	// merge combinations, and wrong player counts at start.
	KindConfig Kind = iota + 1
	// KindAuthorization covers non-owner, non-leader, non-holder actions.
	KindAuthorization
	// KindPhase covers actions invoked outside their valid phase.
	KindPhase
	// KindValidation covers everything else: duplicate picks, full teams,
	// unknown targets, repeat investigations, good players playing fail.
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "configuration"
	case KindAuthorization:
		return "authorization"
	case KindPhase:
		return "phase"
	case KindValidation:
		return "validation"
	}
	return "unknown"
}

// Error is a rejected match action.
type Error struct {
	Kind Kind
	msg  string
}

func (e *Error) Error() string { return e.msg }

// KindOf returns the Kind of err, or 0 when err is not an engine error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func configErrf(format string, args ...interface{}) error {
	return &Error{Kind: KindConfig, msg: fmt.Sprintf(format, args...)}
}

func authErrf(format string, args ...interface{}) error {
	return &Error{Kind: KindAuthorization, msg: fmt.Sprintf(format, args...)}
}

func phaseErrf(format string, args ...interface{}) error {
	return &Error{Kind: KindPhase, msg: fmt.Sprintf(format, args...)}
}

func validationErrf(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, msg: fmt.Sprintf(format, args...)}
}
