package main

import (
	"os"

	_ "velym/backend/docs"
	"velym/backend/internal/app"
)

// @title           Velym API
// @version         1.0
// @description     Health assessments, daily dashboard and an AI health assistant.

// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	os.Exit(app.Run())
}
