package service

import (
	"errors"
	"fmt"

	"boardly-api/domain"
)

// NotFoundError reports that the entity an operation needs does not
// exist. Read boundaries translate it to a null result; mutation
// boundaries to a 404.
type NotFoundError struct {
	Kind domain.Kind
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s does not exist", e.Kind, e.ID)
}

// IntegrityError reports that the duplicated relation bookkeeping is
// inconsistent, e.g. a card missing from its recorded list.
type IntegrityError struct {
	Msg string
}

func (e *IntegrityError) Error() string {
	return e.Msg
}

// ValidationError reports a request that can never succeed, such as a
// patch against a field outside the kind's mutable set.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
