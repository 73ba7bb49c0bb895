package models

import "time"

// Admin — учётка администратора, отдельная таблица (не users).
type Admin struct {
	ID              int       `json:"id"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	FullName        string    `json:"full_name"`
	IsActive        bool      `json:"is_active"`
	TwoFactorSecret string    `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"-"`
}

// AdminStats — сводка для дашборда (action=get_stats).
type AdminStats struct {
	TotalUsers    int     `json:"totalUsers"`
	ActiveOrders  int     `json:"activeOrders"`
	TotalRevenue  float64 `json:"totalRevenue"`
	ActiveDrivers int     `json:"activeDrivers"`
}

// AdminUserRow — строка выгрузки пользователей для админки.
type AdminUserRow struct {
	ID          string  `json:"id"`
	PhoneNumber string  `json:"phone_number"`
	FullName    string  `json:"full_name"`
	Email       string  `json:"email"`
	Role        string  `json:"role"`
	Status      string  `json:"status"` // active | inactive (по email_verified)
	CreatedAt   *string `json:"created_at"`
}
