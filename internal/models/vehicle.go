package models

import "time"

// Vehicle — транспорт перевозчика (раздел "Мой транспорт").
type Vehicle struct {
	ID                  int64     `json:"id"`
	UserID              string    `json:"-"`
	DriverName          string    `json:"driver_name"`
	DriverPhone         string    `json:"driver_phone"`
	DriverLicenseNumber string    `json:"driver_license_number"`
	CarBrand            string    `json:"car_brand"`
	CarModel            string    `json:"car_model"`
	CarNumber           string    `json:"car_number"`
	CarNumberPhotoURL   string    `json:"car_number_photo_url,omitempty"`
	CapacityBoxes       int       `json:"capacity_boxes"`
	CapacityPallets     int       `json:"capacity_pallets"`
	CreatedAt           time.Time `json:"created_at"`
}
