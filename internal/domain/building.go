package domain

import (
	"strings"
	"time"
)

// BuildingState tracks the construction lifecycle. The state only ever
// advances BUILDING -> ACTIVE -> DESTROYED; DESTROYED is terminal.
type BuildingState string

const (
	BuildingInProgress BuildingState = "BUILDING"
	BuildingActive     BuildingState = "ACTIVE"
	BuildingDestroyed  BuildingState = "DESTROYED"
)

// BuildingType identifies the capability a building grants once ACTIVE.
type BuildingType string

const (
	BuildingBank       BuildingType = "bank"
	BuildingChest      BuildingType = "chest"
	BuildingPresent    BuildingType = "present"
	BuildingShop       BuildingType = "shop"
	BuildingRestaurant BuildingType = "restaurant"
	BuildingShelter    BuildingType = "shelter"
	BuildingIsland     BuildingType = "island"
	BuildingLab        BuildingType = "lab"
	BuildingFishing    BuildingType = "fishing"
	BuildingMine       BuildingType = "mine"
)

// BuildingTypes lists every known type in declaration order.
var BuildingTypes = []BuildingType{
	BuildingBank, BuildingChest, BuildingPresent, BuildingShop,
	BuildingRestaurant, BuildingShelter, BuildingIsland, BuildingLab,
	BuildingFishing, BuildingMine,
}

// BuildingTypeFromKey resolves a config/user key to a known type.
func BuildingTypeFromKey(key string) (BuildingType, bool) {
	normalized := BuildingType(strings.ToLower(key))
	for _, t := range BuildingTypes {
		if t == normalized {
			return t, true
		}
	}
	return "", false
}

// Building is a timed construction inside a territory.
type Building struct {
	ID              int64         `json:"id"`
	TerritoryID     int64         `json:"territory_id"`
	Type            BuildingType  `json:"type"`
	State           BuildingState `json:"state"`
	Direction       Direction     `json:"direction"`
	World           string        `json:"world"`
	BaseX           int           `json:"base_x"`
	BaseY           int           `json:"base_y"`
	BaseZ           int           `json:"base_z"`
	Level           int           `json:"level"`
	BuildCompleteAt *time.Time    `json:"build_complete_at,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

// BuildingDefinition is the configured blueprint for a building type.
type BuildingDefinition struct {
	Type             BuildingType
	DisplayName      string
	BuildTimeSeconds int
	StructurePath    string
	Price            int64
	MinLevel         int
	MaxPerNation     int
}

// Direction is the cardinal facing a structure is placed with.
type Direction string

const (
	DirNorth Direction = "NORTH"
	DirSouth Direction = "SOUTH"
	DirEast  Direction = "EAST"
	DirWest  Direction = "WEST"
)

// NormalizeDirection maps any input to one of the four cardinals,
// defaulting to south.
func NormalizeDirection(s string) Direction {
	switch Direction(strings.ToUpper(s)) {
	case DirNorth:
		return DirNorth
	case DirEast:
		return DirEast
	case DirWest:
		return DirWest
	default:
		return DirSouth
	}
}
