package repositories

import (
	"database/sql"
	"fmt"

	"gruzclick/internal/models"
)

type AddressRepository interface {
	ListByUser(userID string) ([]*models.Address, error)
	Create(a *models.Address) error
	Delete(userID string, addressID int64) (bool, error)
}

type addressRepository struct {
	DB *sql.DB
}

func NewAddressRepository(db *sql.DB) AddressRepository {
	return &addressRepository{DB: db}
}

func (r *addressRepository) ListByUser(userID string) ([]*models.Address, error) {
	const q = `
		SELECT id, user_id, type, name, address, COALESCE(city,''), COALESCE(postcode,''),
		       COALESCE(country,''), COALESCE(phone,''), is_default
		FROM user_addresses
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.DB.Query(q, userID)
	if err != nil {
		return nil, fmt.Errorf("addresses list: %w", err)
	}
	defer rows.Close()

	var out []*models.Address
	for rows.Next() {
		a := &models.Address{}
		if err := rows.Scan(&a.ID, &a.UserID, &a.Type, &a.Name, &a.Address,
			&a.City, &a.Postcode, &a.Country, &a.Phone, &a.IsDefault); err != nil {
			return nil, fmt.Errorf("addresses scan: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *addressRepository) Create(a *models.Address) error {
	const q = `
		INSERT INTO user_addresses (user_id, type, name, address, city, postcode, country, phone, is_default)
		VALUES ($1,$2,$3,$4,NULLIF($5,''),NULLIF($6,''),NULLIF($7,''),NULLIF($8,''),$9)
		RETURNING id
	`
	if err := r.DB.QueryRow(q, a.UserID, a.Type, a.Name, a.Address, a.City, a.Postcode,
		a.Country, a.Phone, a.IsDefault).Scan(&a.ID); err != nil {
		return fmt.Errorf("addresses create: %w", err)
	}
	return nil
}

func (r *addressRepository) Delete(userID string, addressID int64) (bool, error) {
	res, err := r.DB.Exec(`DELETE FROM user_addresses WHERE id = $1 AND user_id = $2`, addressID, userID)
	if err != nil {
		return false, fmt.Errorf("addresses delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("addresses delete rows: %w", err)
	}
	return n == 1, nil
}
