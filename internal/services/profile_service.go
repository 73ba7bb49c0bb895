package services

import (
	"strings"

	"gruzclick/internal/models"
	"gruzclick/internal/repositories"
	"gruzclick/internal/utils"
)

// Profile — агрегированный ответ /profile (разделы по запросу).
type Profile struct {
	Personal  *models.User      `json:"personal,omitempty"`
	Addresses []*models.Address `json:"addresses,omitempty"`
	Vehicles  []*models.Vehicle `json:"vehicles,omitempty"`
}

type ProfileService struct {
	users     repositories.UserRepository
	addresses repositories.AddressRepository
	vehicles  repositories.VehicleRepository
}

func NewProfileService(
	users repositories.UserRepository,
	addresses repositories.AddressRepository,
	vehicles repositories.VehicleRepository,
) *ProfileService {
	return &ProfileService{users: users, addresses: addresses, vehicles: vehicles}
}

func (s *ProfileService) Get(userID, section string) (*Profile, error) {
	p := &Profile{}
	if section == "all" || section == "personal" {
		user, err := s.users.GetByID(userID)
		if err != nil {
			return nil, err
		}
		p.Personal = user
	}
	if section == "all" || section == "addresses" {
		addrs, err := s.addresses.ListByUser(userID)
		if err != nil {
			return nil, err
		}
		p.Addresses = addrs
	}
	if section == "all" || section == "vehicles" {
		vs, err := s.vehicles.ListByUser(userID)
		if err != nil {
			return nil, err
		}
		p.Vehicles = vs
	}
	return p, nil
}

func (s *ProfileService) UpdatePersonal(userID string, req *models.UpdateProfileRequest) (*models.User, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, Validation("user not found")
	}

	if req.FullName != "" {
		user.FullName = utils.SanitizeString(req.FullName, 255)
	}
	if req.Phone != "" {
		phone := utils.NormalizePhone(req.Phone)
		if !utils.ValidatePhone(phone) {
			return nil, Validation("invalid phone number")
		}
		user.Phone = phone
	}
	if req.Telegram != "" {
		user.Telegram = strings.TrimPrefix(strings.TrimSpace(req.Telegram), "@")
	}
	if req.OrganizationName != "" {
		user.OrganizationName = utils.SanitizeString(req.OrganizationName, 255)
	}
	if req.INN != "" {
		if !utils.ValidateINN(req.INN) {
			return nil, Validation("invalid INN")
		}
		user.INN = req.INN
	}

	if err := s.users.UpdateProfile(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *ProfileService) AddAddress(userID string, a *models.Address) error {
	if a.Type == "" || a.Name == "" || a.Address == "" {
		return Validation("type, name and address are required")
	}
	a.UserID = userID
	return s.addresses.Create(a)
}

func (s *ProfileService) DeleteAddress(userID string, addressID int64) error {
	ok, err := s.addresses.Delete(userID, addressID)
	if err != nil {
		return err
	}
	if !ok {
		return Validation("address not found")
	}
	return nil
}
