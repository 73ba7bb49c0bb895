package services

import (
	"gruzclick/internal/models"
	"gruzclick/internal/repositories"
	"gruzclick/internal/utils"
)

// VehicleService — транспорт перевозчика и проверка ВУ.
type VehicleService struct {
	repo repositories.VehicleRepository
}

func NewVehicleService(repo repositories.VehicleRepository) *VehicleService {
	return &VehicleService{repo: repo}
}

func (s *VehicleService) List(userID string) ([]*models.Vehicle, error) {
	return s.repo.ListByUser(userID)
}

func (s *VehicleService) Save(userID string, vehicles []*models.Vehicle) error {
	for _, v := range vehicles {
		if v.DriverName == "" || v.DriverPhone == "" || v.CarNumber == "" {
			return Validation("driver_name, driver_phone and car_number are required")
		}
		if v.DriverLicenseNumber != "" && !utils.ValidateLicenseNumber(v.DriverLicenseNumber) {
			return Validation("invalid driver license number, must be 10 digits")
		}
	}
	return s.repo.ReplaceForUser(userID, vehicles)
}

func (s *VehicleService) Delete(userID string, vehicleID int64) error {
	ok, err := s.repo.Delete(userID, vehicleID)
	if err != nil {
		return err
	}
	if !ok {
		return Validation("vehicle not found")
	}
	return nil
}

// LicenseCheckResult — ответ проверки ВУ.
type LicenseCheckResult struct {
	Valid   bool   `json:"valid"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

// VerifyLicense — проверка формата ВУ. Внешний реестр недоступен из
// этого контура, поэтому валидный формат считается действующим.
func (s *VehicleService) VerifyLicense(licenseNumber, birthDate string) (*LicenseCheckResult, error) {
	if licenseNumber == "" || birthDate == "" {
		return nil, Validation("license_number and birth_date are required")
	}
	if !utils.ValidateLicenseNumber(licenseNumber) {
		return &LicenseCheckResult{
			Valid:   false,
			Message: "Неверный формат ВУ. Должно быть 10 цифр (например: 7711123456)",
		}, nil
	}
	return &LicenseCheckResult{Valid: true, Status: "active"}, nil
}
