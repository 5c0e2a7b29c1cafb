package attr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPackUnpackAttribsRoundTrip(t *testing.T) {
	cases := []EdgeAttribs{
		{Type: MOTORWAY, Speed: 100, Length: 1234},
		{Type: ROAD, Speed: 0, Length: 0},
		{Type: INVALID, Speed: 255, Length: MaxLength},
	}
	for _, c := range cases {
		word := PackAttribs(c)
		got := UnpackAttribs(word)
		require.Equal(t, c, got)
	}
}

func TestPackAttribsClampsLength(t *testing.T) {
	word := PackAttribs(EdgeAttribs{Type: ROAD, Speed: 50, Length: MaxLength + 1000})
	got := UnpackAttribs(word)
	require.Equal(t, uint32(MaxLength), got.Length)
}

func TestDefaultSpeedKMHTable(t *testing.T) {
	require.EqualValues(t, 100, DefaultSpeedKMH(MOTORWAY))
	require.EqualValues(t, 50, DefaultSpeedKMH(ROAD))
	require.EqualValues(t, 30, DefaultSpeedKMH(RESIDENTIAL))
	require.EqualValues(t, 30, DefaultSpeedKMH(INVALID))
}

func TestStreetTypeFromStringRoundTrip(t *testing.T) {
	for _, typ := range []StreetType{MOTORWAY, TRUNK, PRIMARY, SECONDARY, TERTIARY, UNCLASSIFIED, RESIDENTIAL, SERVICE, LIVING_STREET, TRACK, ROAD, INVALID} {
		got, err := StreetTypeFromString(typ.String())
		require.NoError(t, err)
		require.Equal(t, typ, got)
	}
	_, err := StreetTypeFromString("bogus")
	require.Error(t, err)
}
