package domain

import (
	"fmt"
	"strings"
)

// Amenity is a POI category from the closed set the planner understands.
// Each value maps to one OSM `amenity` tag value.
type Amenity int

const (
	AmenityUnknown Amenity = iota
	AmenityRestaurant
	AmenityCafe
	AmenityFastFood
	AmenityPub
	AmenityBar
	AmenityIceCream
	AmenityFuel
	AmenityChargingStation
	AmenityParking
	AmenityCarWash
	AmenityToilets
	AmenityDrinkingWater
	AmenityPharmacy
	AmenityHospital
	AmenityClinic
	AmenityDentist
	AmenityBank
	AmenityATM
	AmenityPostOffice
	AmenityLibrary
	AmenityPlaceOfWorship
	AmenityTheatre
	AmenityCinema
	AmenityMarketplace
)

var amenityKeys = [...]string{
	AmenityUnknown:         "",
	AmenityRestaurant:      "restaurant",
	AmenityCafe:            "cafe",
	AmenityFastFood:        "fast_food",
	AmenityPub:             "pub",
	AmenityBar:             "bar",
	AmenityIceCream:        "ice_cream",
	AmenityFuel:            "fuel",
	AmenityChargingStation: "charging_station",
	AmenityParking:         "parking",
	AmenityCarWash:         "car_wash",
	AmenityToilets:         "toilets",
	AmenityDrinkingWater:   "drinking_water",
	AmenityPharmacy:        "pharmacy",
	AmenityHospital:        "hospital",
	AmenityClinic:          "clinic",
	AmenityDentist:         "dentist",
	AmenityBank:            "bank",
	AmenityATM:             "atm",
	AmenityPostOffice:      "post_office",
	AmenityLibrary:         "library",
	AmenityPlaceOfWorship:  "place_of_worship",
	AmenityTheatre:         "theatre",
	AmenityCinema:          "cinema",
	AmenityMarketplace:     "marketplace",
}

var amenityByKey = func() map[string]Amenity {
	m := make(map[string]Amenity, len(amenityKeys))
	for i, k := range amenityKeys {
		if k != "" {
			m[k] = Amenity(i)
		}
	}
	return m
}()

// Amenities returns every known category in declaration order.
func Amenities() []Amenity {
	out := make([]Amenity, 0, len(amenityKeys)-1)
	for i := 1; i < len(amenityKeys); i++ {
		out = append(out, Amenity(i))
	}
	return out
}

// ParseAmenity accepts the OSM key or its human label
// ("fast_food", "Fast food", "fast-food").
func ParseAmenity(s string) (Amenity, error) {
	norm := strings.ToLower(strings.Join(strings.Fields(s), "_"))
	norm = strings.ReplaceAll(norm, "-", "_")

	a, ok := amenityByKey[norm]
	if !ok {
		return AmenityUnknown, fmt.Errorf("parse amenity %q: %w", s, ErrUnknownAmenity)
	}
	return a, nil
}

// Key returns the OSM `amenity` tag value.
func (a Amenity) Key() string {
	if a <= AmenityUnknown || int(a) >= len(amenityKeys) {
		return ""
	}
	return amenityKeys[a]
}

// Label renders the key for display: "fast_food" becomes "Fast food".
func (a Amenity) Label() string {
	k := strings.ReplaceAll(a.Key(), "_", " ")
	if k == "" {
		return ""
	}
	return strings.ToUpper(k[:1]) + k[1:]
}

func (a Amenity) Valid() bool { return a.Key() != "" }

func (a Amenity) String() string {
	if !a.Valid() {
		return "unknown"
	}
	return a.Key()
}

// RoadClass is a drivable OSM `highway` value.
type RoadClass string

const (
	RoadMotorway      RoadClass = "motorway"
	RoadMotorwayLink  RoadClass = "motorway_link"
	RoadTrunk         RoadClass = "trunk"
	RoadTrunkLink     RoadClass = "trunk_link"
	RoadPrimary       RoadClass = "primary"
	RoadPrimaryLink   RoadClass = "primary_link"
	RoadSecondary     RoadClass = "secondary"
	RoadSecondaryLink RoadClass = "secondary_link"
	RoadTertiary      RoadClass = "tertiary"
	RoadTertiaryLink  RoadClass = "tertiary_link"
)

// DrivableRoadClasses is the default allowlist for shortest-path queries.
func DrivableRoadClasses() []RoadClass {
	return []RoadClass{
		RoadMotorway, RoadMotorwayLink,
		RoadTrunk, RoadTrunkLink,
		RoadPrimary, RoadPrimaryLink,
		RoadSecondary, RoadSecondaryLink,
		RoadTertiary, RoadTertiaryLink,
	}
}

// ParseRoadClass validates a configured road class against the allowlist.
func ParseRoadClass(s string) (RoadClass, error) {
	rc := RoadClass(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range DrivableRoadClasses() {
		if rc == known {
			return rc, nil
		}
	}
	return "", fmt.Errorf("parse road class %q: not a drivable highway class", s)
}
