package dto

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type POIRequest struct {
	Category  string  `json:"category"`
	DwellTime float64 `json:"dwell_time"` // seconds
}

// RouteRequest is the body of POST /routes. Times are in seconds, distances in meters.
type RouteRequest struct {
	Start            *Point       `json:"start"`
	End              *Point       `json:"end"`
	MaxExtraTime     float64      `json:"max_extra_time"`
	MaxExtraDistance float64      `json:"max_extra_distance"`
	POIs             []POIRequest `json:"pois"`
}

type RoutePointResponse struct {
	X                  float64  `json:"x"`
	Y                  float64  `json:"y"`
	NodeID             int64    `json:"node_id"`
	IsPOI              bool     `json:"is_poi"`
	POICategory        string   `json:"poi_category,omitempty"`
	POIName            string   `json:"poi_name,omitempty"`
	DwellTime          *float64 `json:"dwell_time,omitempty"`
	CumulativeDistance float64  `json:"cumulative_distance"`
	CumulativeTime     float64  `json:"cumulative_time"`
}

type UnsatisfiedResponse struct {
	Index    int    `json:"index"`
	Category string `json:"category"`
	Reason   string `json:"reason"`
}

type RouteResponse struct {
	BaselinePath       []Point              `json:"baseline_path"`
	Points             []RoutePointResponse `json:"points"`
	TotalTime          float64              `json:"total_time"`
	TotalDistance      float64              `json:"total_distance"`
	AdditionalTime     float64              `json:"additional_time"`
	AdditionalDistance float64              `json:"additional_distance"`
	TotalDwellTime     float64              `json:"total_dwell_time"`
	Unsatisfied        *UnsatisfiedResponse `json:"unsatisfied,omitempty"`
}
