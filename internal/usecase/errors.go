package usecase

import (
	"errors"

	"github.com/google/uuid"
)

type ErrNotFound struct {
	ID      uuid.UUID
	Code    string
	Message string
}

func (e ErrNotFound) Error() string {
	return e.Message
}

// ErrUnauthorized is returned when a valid caller targets a row it does not
// own (or cannot see). No mutation has happened when it is returned.
type ErrUnauthorized struct {
	ID      uuid.UUID
	Message string
}

func (e ErrUnauthorized) Error() string {
	return e.Message
}

type ErrInvalid struct {
	Field   string
	Message string
}

func (e ErrInvalid) Error() string {
	return e.Message
}

// ErrInvalidTransition reports a generation resolution that conflicts with
// the entity's terminal state.
type ErrInvalidTransition struct {
	ID    uuid.UUID
	From  GenerationState
	Event string
}

func (e ErrInvalidTransition) Error() string {
	return "cannot apply " + e.Event + " to " + string(e.From) + " entity " + e.ID.String()
}

var ErrUnauthenticated = errors.New("not authenticated")

func notFound(id uuid.UUID, entity string) ErrNotFound {
	return ErrNotFound{
		ID:      id,
		Code:    entity + "_not_found",
		Message: entity + " " + id.String() + " not found",
	}
}

func unauthorized(id uuid.UUID, entity string) ErrUnauthorized {
	return ErrUnauthorized{
		ID:      id,
		Message: "unauthorized: " + entity + " " + id.String() + " belongs to another user",
	}
}

func IsNotFound(err error) bool {
	var e ErrNotFound
	return errors.As(err, &e)
}
