package ccapi

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompileError_UnwrapsToCause(t *testing.T) {
	cause := errors.New("dominance violation")
	err := Wrap(InvalidIR, "verify", "add_two", cause)

	require.Equal(t, InvalidIR, err.Kind)
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "InvalidIR")
	require.Contains(t, err.Error(), "add_two")
}

func TestErrorKind_String(t *testing.T) {
	require.Equal(t, "LoweringFailed", LoweringFailed.String())
	require.Equal(t, "unknown", ErrorKind(255).String())
}

func TestOptLevel_String(t *testing.T) {
	require.Equal(t, "speed_and_size", OptLevelSpeedAndSize.String())
}
