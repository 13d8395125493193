package main

// @title Store Service API
// @version 1.0
// @description Hiking store aggregation service: category listings, recently viewed products, favorites and search, with full observability (Prometheus, Jaeger)
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@example.com

// @license.name MIT

// @host localhost:3006
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @tag.name Products
// @tag.description Category listings

// @tag.name Recent
// @tag.description Recently viewed products

// @tag.name Favorites
// @tag.description Per-user favorites

// @tag.name Search
// @tag.description Product search

// @tag.name Admin
// @tag.description Admin-only maintenance endpoints

// @tag.name Health
// @tag.description Health check endpoints
