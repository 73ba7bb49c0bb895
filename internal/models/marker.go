package models

// Marker — точка на карте: груз в ожидании или водитель.
type Marker struct {
	ID      string  `json:"id"`
	Type    string  `json:"type"` // cargo | driver
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Name    string  `json:"name"`
	Details string  `json:"details"`
	Status  string  `json:"status"`
}
