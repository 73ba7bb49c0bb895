package main

import "gruzclick/internal/app"

// @title           ГрузКлик API
// @version         1.0
// @description     Бэкенд маркетплейса грузоперевозок: аутентификация, заявки, транспорт, профиль.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app.Run()
}
