package attr

import (
	"encoding/json"
	"errors"
)

//*******************************************
// enums
//*******************************************

// StreetType occupies bits 0-3 of the packed edge attribute word (§6).
type StreetType byte

const (
	MOTORWAY StreetType = iota
	TRUNK
	PRIMARY
	SECONDARY
	TERTIARY
	UNCLASSIFIED
	RESIDENTIAL
	SERVICE
	LIVING_STREET
	TRACK
	ROAD
	INVALID StreetType = 15
)

func (self StreetType) String() string {
	switch self {
	case MOTORWAY:
		return "motorway"
	case TRUNK:
		return "trunk"
	case PRIMARY:
		return "primary"
	case SECONDARY:
		return "secondary"
	case TERTIARY:
		return "tertiary"
	case UNCLASSIFIED:
		return "unclassified"
	case RESIDENTIAL:
		return "residential"
	case SERVICE:
		return "service"
	case LIVING_STREET:
		return "living_street"
	case TRACK:
		return "track"
	case ROAD:
		return "road"
	case INVALID:
		return "invalid"
	default:
		return "invalid"
	}
}

func StreetTypeFromString(typ string) (StreetType, error) {
	switch typ {
	case "motorway":
		return MOTORWAY, nil
	case "trunk":
		return TRUNK, nil
	case "primary":
		return PRIMARY, nil
	case "secondary":
		return SECONDARY, nil
	case "tertiary":
		return TERTIARY, nil
	case "unclassified":
		return UNCLASSIFIED, nil
	case "residential":
		return RESIDENTIAL, nil
	case "service":
		return SERVICE, nil
	case "living_street":
		return LIVING_STREET, nil
	case "track":
		return TRACK, nil
	case "road":
		return ROAD, nil
	case "invalid":
		return INVALID, nil
	default:
		return INVALID, errors.New("unknown street type: " + typ)
	}
}

func (self StreetType) MarshalJSON() ([]byte, error) {
	return json.Marshal(self.String())
}
func (self *StreetType) UnmarshalJSON(data []byte) error {
	var typ string
	if err := json.Unmarshal(data, &typ); err != nil {
		return err
	}
	val, err := StreetTypeFromString(typ)
	if err != nil {
		return err
	}
	*self = val
	return nil
}
