package attr

//*******************************************
// packed edge attribute word (§6)
//*******************************************
//
// bits 0-3:   StreetType
// bits 4-11:  Speed, km/h, unsigned
// bits 12-31: Length, meters, unsigned

const (
	streetTypeBits = 4
	speedBits      = 8
	lengthBits     = 20

	streetTypeMask = (1 << streetTypeBits) - 1
	speedMask      = (1 << speedBits) - 1
	lengthMask     = (1 << lengthBits) - 1

	speedShift  = streetTypeBits
	lengthShift = streetTypeBits + speedBits

	// MaxLength is the largest length (in meters) representable in the
	// 20-bit length field. A longer edge must be split upstream or its
	// length clamped; the core treats an overflowing length as OutOfRange
	// and clamps the resulting weight to INF instead (see package comps).
	MaxLength = lengthMask
)

// EdgeAttribs is the unpacked form of the 32-bit attribute word.
type EdgeAttribs struct {
	Type   StreetType
	Speed  byte // km/h
	Length uint32
}

// PackAttribs encodes a's fields into the wire word. Length is clamped
// to MaxLength rather than overflowing into the adjacent field.
func PackAttribs(a EdgeAttribs) uint32 {
	length := a.Length
	if length > MaxLength {
		length = MaxLength
	}
	word := uint32(a.Type) & streetTypeMask
	word |= (uint32(a.Speed) & speedMask) << speedShift
	word |= (length & lengthMask) << lengthShift
	return word
}

// UnpackAttribs decodes the wire word back into EdgeAttribs.
func UnpackAttribs(word uint32) EdgeAttribs {
	return EdgeAttribs{
		Type:   StreetType(word & streetTypeMask),
		Speed:  byte((word >> speedShift) & speedMask),
		Length: (word >> lengthShift) & lengthMask,
	}
}

// DefaultSpeedKMH returns the street-type default speed (km/h) used by
// TimeFunction when an edge carries no explicit speed attribute, taken
// from the original implementation's street-type default-speed table.
func DefaultSpeedKMH(t StreetType) byte {
	switch t {
	case MOTORWAY:
		return 100
	case TRUNK:
		return 85
	case PRIMARY:
		return 70
	case SECONDARY:
		return 60
	case TERTIARY:
		return 50
	case RESIDENTIAL, LIVING_STREET:
		return 30
	case SERVICE, TRACK:
		return 20
	case ROAD:
		return 50
	default:
		return 30
	}
}
