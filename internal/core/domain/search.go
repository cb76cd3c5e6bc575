package domain

// SearchCandidate is a single geocoder result.
type SearchCandidate struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Location GeoPoint `json:"location"`
}
