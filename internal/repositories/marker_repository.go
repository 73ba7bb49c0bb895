package repositories

import (
	"database/sql"
	"fmt"

	"gruzclick/internal/models"
)

type MarkerRepository interface {
	// ListMarkers — грузы в ожидании и все водители для карты.
	ListMarkers() ([]*models.Marker, error)
}

type markerRepository struct {
	DB *sql.DB
}

func NewMarkerRepository(db *sql.DB) MarkerRepository {
	return &markerRepository{DB: db}
}

func (r *markerRepository) ListMarkers() ([]*models.Marker, error) {
	var markers []*models.Marker

	const cargoQ = `
		SELECT cargo_id, name, details, COALESCE(weight,0), lat, lng
		FROM cargo
		WHERE status = 'waiting'
	`
	rows, err := r.DB.Query(cargoQ)
	if err != nil {
		return nil, fmt.Errorf("markers cargo: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			m       models.Marker
			details string
			weight  float64
		)
		if err := rows.Scan(&m.ID, &m.Name, &details, &weight, &m.Lat, &m.Lng); err != nil {
			return nil, fmt.Errorf("markers cargo scan: %w", err)
		}
		m.Type = "cargo"
		m.Details = fmt.Sprintf("%s, %.0fкг", details, weight)
		m.Status = "Ожидает"
		markers = append(markers, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	const driversQ = `
		SELECT driver_id, name, vehicle_type, COALESCE(capacity,0), lat, lng, status
		FROM drivers
	`
	drows, err := r.DB.Query(driversQ)
	if err != nil {
		return nil, fmt.Errorf("markers drivers: %w", err)
	}
	defer drows.Close()
	for drows.Next() {
		var (
			m           models.Marker
			vehicleType string
			capacity    float64
		)
		if err := drows.Scan(&m.ID, &m.Name, &vehicleType, &capacity, &m.Lat, &m.Lng, &m.Status); err != nil {
			return nil, fmt.Errorf("markers drivers scan: %w", err)
		}
		m.Type = "driver"
		m.Details = fmt.Sprintf("%s, %.0fкг", vehicleType, capacity)
		markers = append(markers, &m)
	}
	return markers, drows.Err()
}
