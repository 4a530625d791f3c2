package client

import (
	"campus-chat/errors"
	stderrors "errors"
	"fmt"
)

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", errors.ErrCollaboratorUnavailable, err)
}

// collaboratorError keeps caller mistakes as they are and marks everything else
// as an unavailable collaborator.
func collaboratorError(err error) error {
	if stderrors.Is(err, errors.ErrValidation) || stderrors.Is(err, errors.ErrNotFound) {
		return err
	}
	return unavailable(err)
}
