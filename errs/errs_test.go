package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	require.Equal(t, "io", IO.String())
	require.Equal(t, "invariant_violation", InvariantViolation.String())
	require.Equal(t, "out_of_range", OutOfRange.String())
	require.Equal(t, "unknown", Kind(200).String())
}

func TestWrapNilIsNil(t *testing.T) {
	require.NoError(t, Wrap(IO, nil))
}

func TestWrapIsMatchesKindSentinel(t *testing.T) {
	err := Wrap(IO, errors.New("file missing"))
	require.True(t, errors.Is(err, ErrIO))
	require.False(t, errors.Is(err, ErrInvariantViolation))
}

func TestWrapfFormatsMessageAndUnwraps(t *testing.T) {
	err := Wrapf(OutOfRange, "length %d exceeds max %d", 5, 3)
	require.EqualError(t, err, "out_of_range: length 5 exceeds max 3")
	require.True(t, errors.Is(err, ErrOutOfRange))
}
