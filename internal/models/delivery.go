package models

import "time"

// Статусы заявки на перевозку.
const (
	DeliveryPending   = "pending"
	DeliveryActive    = "active"
	DeliveryCompleted = "completed"
	DeliveryCancelled = "cancelled"
)

type Delivery struct {
	ID               string     `json:"delivery_id"`
	ClientID         string     `json:"client_id"`
	CarrierID        *string    `json:"carrier_id,omitempty"`
	PickupAddress    string     `json:"pickup_address"`
	DeliveryAddress  string     `json:"delivery_address"`
	WarehouseAddress string     `json:"warehouse_address"`
	CargoQuantity    int        `json:"cargo_quantity"`
	CargoUnit        string     `json:"cargo_unit"`
	Weight           float64    `json:"weight"`
	DeliveryDate     *time.Time `json:"delivery_date,omitempty"`
	DeliveryPrice    float64    `json:"delivery_price"`
	ContactPhone     string     `json:"contact_phone"`
	Status           string     `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
}

type CreateDeliveryRequest struct {
	PickupAddress    string  `json:"pickup_address"`
	DeliveryAddress  string  `json:"delivery_address"`
	WarehouseAddress string  `json:"warehouse_address"`
	CargoQuantity    int     `json:"cargo_quantity"`
	CargoUnit        string  `json:"cargo_unit"`
	Weight           float64 `json:"weight"`
	DeliveryDate     string  `json:"delivery_date"`
	DeliveryPrice    float64 `json:"delivery_price"`
	ContactPhone     string  `json:"contact_phone"`
}

type UpdateDeliveryRequest struct {
	DeliveryID string  `json:"delivery_id"`
	Status     string  `json:"status,omitempty"`
	CarrierID  *string `json:"carrier_id,omitempty"`
}
