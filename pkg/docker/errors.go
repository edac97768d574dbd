package docker

import (
	"errors"
	"fmt"
)

// NotFoundError represents "object <ref> wasn't found" inside the Docker engine.
// It is the one recoverable condition in the build pipeline: a base image that
// is absent locally triggers the registry provisioning fallback.
type NotFoundError struct {
	// Ref is a unique identifier, such as an image reference or container ID.
	Ref string
	// Object is the ref type, such as "image" or "container".
	Object string
}

func (e *NotFoundError) Error() string {
	objType := e.Object
	if objType == "" {
		objType = "object"
	}
	return fmt.Sprintf("%s not found: %q", objType, e.Ref)
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, &NotFoundError{})
}
