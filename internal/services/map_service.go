package services

import (
	"gruzclick/internal/models"
	"gruzclick/internal/repositories"
)

// MapService — маркеры грузов и водителей для карты.
type MapService struct {
	repo repositories.MarkerRepository
}

func NewMapService(repo repositories.MarkerRepository) *MapService {
	return &MapService{repo: repo}
}

func (s *MapService) Markers() ([]*models.Marker, error) {
	return s.repo.ListMarkers()
}
