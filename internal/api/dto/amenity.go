package dto

type AmenityResponse struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

type ListAmenitiesResponse struct {
	Amenities []AmenityResponse `json:"amenities"`
}
