package services

import (
	"fmt"

	"github.com/juju/errors"
	"gorm.io/gorm"
)

const (
	// ErrInvalidState is returned when an operation is not legal for the
	// entity's current state, e.g. reviewing an order that is not delivered.
	ErrInvalidState = errors.ConstError("invalid state")

	// ErrConflict is returned when a conditional write lost a race.
	ErrConflict = errors.ConstError("conflict")
)

func invalidStatef(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidState)
}

func conflictf(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrConflict)
}

// lookupErr turns a missing row into a NotFound error and annotates anything else.
func lookupErr(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.NotFoundf(format, args...)
	}
	return errors.Annotatef(err, "loading "+format, args...)
}

// duplicateErr turns a unique violation into an AlreadyExists error.
func duplicateErr(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errors.AlreadyExistsf(format, args...)
	}
	return errors.Trace(err)
}
