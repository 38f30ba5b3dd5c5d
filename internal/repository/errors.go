package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

var (
	// ErrDuplicate matches any *DuplicateError.
	ErrDuplicate = errors.New("duplicate value")
	// ErrUserLimitReached is returned when the user table is at capacity.
	ErrUserLimitReached = errors.New("user limit reached")
	// ErrAlreadyMember is returned when adding an existing group member.
	ErrAlreadyMember = errors.New("user is already a group member")
	// ErrNotMember is returned when removing a user that is not a member.
	ErrNotMember = errors.New("user is not a group member")
	// ErrMissingReference is returned when a foreign key target does not exist.
	ErrMissingReference = errors.New("referenced row does not exist")
	// ErrReferenced is returned when deleting a row other rows still point at.
	ErrReferenced = errors.New("row is still referenced")
)

// DuplicateError reports a unique constraint violation.
type DuplicateError struct {
	Constraint string
	Err        error
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate value violates %s", e.Constraint)
}

func (e *DuplicateError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrDuplicate) match.
func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

func pqCode(err error) (*pq.Error, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr, true
	}
	return nil, false
}

// translate maps driver level constraint violations onto repository errors.
// insert selects how a foreign key violation reads: a missing parent on
// insert/update, a dangling child on delete.
func translate(err error, insert bool) error {
	pqErr, ok := pqCode(err)
	if !ok {
		return err
	}
	switch string(pqErr.Code) {
	case pqUniqueViolation:
		return &DuplicateError{Constraint: pqErr.Constraint, Err: err}
	case pqForeignKeyViolation:
		if insert {
			return fmt.Errorf("%w: %s", ErrMissingReference, pqErr.Constraint)
		}
		return fmt.Errorf("%w: %s", ErrReferenced, pqErr.Constraint)
	}
	return err
}
