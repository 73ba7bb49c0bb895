package models

// Address — сохранённый адрес пользователя (склад, офис и т.п.).
type Address struct {
	ID        int64  `json:"id"`
	UserID    string `json:"-"`
	Type      string `json:"type"` // pickup | delivery | warehouse
	Name      string `json:"name"`
	Address   string `json:"address"`
	City      string `json:"city"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Phone     string `json:"phone"`
	IsDefault bool   `json:"is_default"`
}

type UpdateProfileRequest struct {
	FullName         string `json:"full_name"`
	Phone            string `json:"phone"`
	Telegram         string `json:"telegram"`
	OrganizationName string `json:"organization_name"`
	INN              string `json:"inn"`
}
