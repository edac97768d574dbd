package imagebuilder

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBaseImageNameCombinations(t *testing.T) {
	for _, tt := range []struct {
		name     string
		opts     BaseImageOptions
		expected string
	}{
		{
			name:     "cpu default",
			opts:     BaseImageOptions{},
			expected: "superai-model-s2i-python3711-cpu:1",
		},
		{
			name:     "cuda runtime",
			opts:     BaseImageOptions{EnableCuda: true},
			expected: "superai-model-s2i-python3711-gpu:1",
		},
		{
			name:     "cuda devel takes priority over cuda",
			opts:     BaseImageOptions{EnableCuda: true, CudaDevel: true},
			expected: "superai-model-s2i-python3711-gpu-devel:1",
		},
		{
			name:     "eia",
			opts:     BaseImageOptions{EnableEIA: true},
			expected: "superai-model-s2i-python3711-eia:1",
		},
		{
			name:     "lambda",
			opts:     BaseImageOptions{LambdaMode: true},
			expected: "superai-model-s2i-python3711-cpu-lambda:1",
		},
		{
			name:     "kubernetes",
			opts:     BaseImageOptions{EnableCuda: true, K8sMode: true},
			expected: "superai-model-s2i-python3711-gpu-seldon:1",
		},
		{
			name:     "internal via dev environment",
			opts:     BaseImageOptions{Environment: "dev"},
			expected: "superai-model-s2i-python3711-cpu-internal:1",
		},
		{
			name:     "internal requested explicitly",
			opts:     BaseImageOptions{K8sMode: true, UseInternal: true, Environment: "prod"},
			expected: "superai-model-s2i-python3711-cpu-internal-seldon:1",
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			name, err := BaseImageName(tt.opts)
			require.NoError(t, err)
			require.Equal(t, tt.expected, name)
		})
	}
}

func TestBaseImageNameIsPure(t *testing.T) {
	opts := BaseImageOptions{EnableCuda: true, K8sMode: true, Environment: "sandbox"}
	first, err := BaseImageName(opts)
	require.NoError(t, err)
	second, err := BaseImageName(opts)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestBaseImageNameInvalidCombinations(t *testing.T) {
	for _, opts := range []BaseImageOptions{
		{EnableEIA: true, LambdaMode: true},
		{EnableEIA: true, EnableCuda: true},
		{EnableEIA: true, K8sMode: true},
		{EnableCuda: true, LambdaMode: true},
	} {
		_, err := BaseImageName(opts)
		require.Error(t, err)
	}
}
