package errors

import "fmt"

var (
	ErrValidation              = fmt.Errorf("validation failed")
	ErrCollaboratorUnavailable = fmt.Errorf("collaborator unavailable")
	ErrBusy                    = fmt.Errorf("a send is already in flight")

	ErrNotFound           = fmt.Errorf("not found")
	ErrNotParticipant     = fmt.Errorf("identity is not a participant of the conversation")
	ErrMalformedRow       = fmt.Errorf("malformed row")
	ErrSubscriptionClosed = fmt.Errorf("subscription closed")

	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity requirements")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrUnauthenticated    = fmt.Errorf("unauthenticated")

	ErrWorkerPanic = fmt.Errorf("worker panic")
	ErrEmptyWords  = fmt.Errorf("no words have been found")
)
