package structs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTurnTypeString(t *testing.T) {
	require.Equal(t, "left", LEFT.String())
	require.Equal(t, "u_turn", U_TURN.String())
	require.Equal(t, "unknown", TurnType(200).String())
}
