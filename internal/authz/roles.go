package authz

// Роли пользователей (user_type в БД) и служебная роль админки.
const (
	RoleClient  = "client"
	RoleCarrier = "carrier"
	RoleAdmin   = "admin"
)

func IsValidUserType(t string) bool {
	return t == RoleClient || t == RoleCarrier
}

func IsAdmin(role string) bool {
	return role == RoleAdmin
}
