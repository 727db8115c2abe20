package domain

import (
	"errors"
	"testing"
)

func TestParseAmenity(t *testing.T) {
	for _, in := range []string{"fast_food", "Fast food", "fast-food", "  FAST   FOOD "} {
		a, err := ParseAmenity(in)
		if err != nil {
			t.Fatalf("parse %q: unexpected error: %v", in, err)
		}
		if a != AmenityFastFood {
			t.Fatalf("parse %q = %v, want fast_food", in, a)
		}
	}

	if _, err := ParseAmenity("spaceport"); !errors.Is(err, ErrUnknownAmenity) {
		t.Fatalf("err = %v, want ErrUnknownAmenity", err)
	}
}

func TestAmenityLabelRoundTrip(t *testing.T) {
	for _, a := range Amenities() {
		got, err := ParseAmenity(a.Label())
		if err != nil || got != a {
			t.Errorf("label %q parsed to %v (err %v), want %v", a.Label(), got, err, a)
		}
	}
	if AmenityUnknown.Valid() {
		t.Fatalf("unknown amenity must be invalid")
	}
}

func TestParseRoadClass(t *testing.T) {
	if rc, err := ParseRoadClass(" Primary_Link "); err != nil || rc != RoadPrimaryLink {
		t.Fatalf("got %q, %v; want primary_link", rc, err)
	}
	if _, err := ParseRoadClass("footway"); err == nil {
		t.Fatalf("footway must not be drivable")
	}
}
