package docker

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsNotFoundError(t *testing.T) {
	err := &NotFoundError{Ref: "superai-model-s2i-python3711-cpu:1", Object: "image"}
	require.True(t, IsNotFoundError(err))
	require.True(t, IsNotFoundError(fmt.Errorf("checking base image: %w", err)))
	require.False(t, IsNotFoundError(errors.New("image not found")))
	require.Contains(t, err.Error(), "image not found")
}
