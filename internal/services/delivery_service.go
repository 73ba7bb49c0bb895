package services

import (
	"time"

	"github.com/google/uuid"

	"gruzclick/internal/authz"
	"gruzclick/internal/models"
	"gruzclick/internal/repositories"
)

const pendingListLimit = 50

// DeliveryService — заявки на перевозку.
type DeliveryService struct {
	repo repositories.DeliveryRepository
}

func NewDeliveryService(repo repositories.DeliveryRepository) *DeliveryService {
	return &DeliveryService{repo: repo}
}

// List — клиент видит свои заявки, перевозчик свои плюс свободные,
// остальные роли — свободные с лимитом.
func (s *DeliveryService) List(userID, userType string) ([]*models.Delivery, error) {
	switch userType {
	case authz.RoleClient:
		return s.repo.ListForClient(userID)
	case authz.RoleCarrier:
		return s.repo.ListForCarrier(userID)
	default:
		return s.repo.ListPending(pendingListLimit)
	}
}

func (s *DeliveryService) Create(req *models.CreateDeliveryRequest, clientID string) (*models.Delivery, error) {
	if req.PickupAddress == "" || req.DeliveryAddress == "" || req.WarehouseAddress == "" ||
		req.CargoQuantity <= 0 || req.CargoUnit == "" || req.Weight <= 0 ||
		req.DeliveryDate == "" || req.DeliveryPrice <= 0 || req.ContactPhone == "" {
		return nil, Validation("missing required fields")
	}
	date, err := time.Parse("2006-01-02", req.DeliveryDate)
	if err != nil {
		return nil, Validation("invalid delivery_date, use YYYY-MM-DD")
	}

	d := &models.Delivery{
		ID:               uuid.NewString(),
		ClientID:         clientID,
		PickupAddress:    req.PickupAddress,
		DeliveryAddress:  req.DeliveryAddress,
		WarehouseAddress: req.WarehouseAddress,
		CargoQuantity:    req.CargoQuantity,
		CargoUnit:        req.CargoUnit,
		Weight:           req.Weight,
		DeliveryDate:     &date,
		DeliveryPrice:    req.DeliveryPrice,
		ContactPhone:     req.ContactPhone,
	}
	if err := s.repo.Create(d); err != nil {
		return nil, err
	}
	return d, nil
}

// Update — смена статуса владельцем/назначенным перевозчиком либо
// захват свободной заявки перевозчиком.
func (s *DeliveryService) Update(req *models.UpdateDeliveryRequest, userID string) error {
	if req.DeliveryID == "" {
		return Validation("delivery_id is required")
	}
	if req.CarrierID != nil {
		ok, err := s.repo.AssignCarrier(req.DeliveryID, *req.CarrierID)
		if err != nil {
			return err
		}
		if !ok {
			return Validation("delivery is no longer available")
		}
		return nil
	}
	if req.Status == "" {
		return Validation("status or carrier_id is required")
	}
	switch req.Status {
	case models.DeliveryActive, models.DeliveryCompleted, models.DeliveryCancelled:
	default:
		return Validation("invalid status")
	}
	ok, err := s.repo.UpdateStatus(req.DeliveryID, userID, req.Status)
	if err != nil {
		return err
	}
	if !ok {
		return Validation("delivery not found or not yours")
	}
	return nil
}

func (s *DeliveryService) GetByID(id string) (*models.Delivery, error) {
	return s.repo.GetByID(id)
}
