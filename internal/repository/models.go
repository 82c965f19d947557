package repository

import "gorm.io/gorm"

// AutoMigrate creates or updates the tables backing the GORM repositories.
// Production deployments use the SQL files under migrations/ instead.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&BookingModel{}, &ServiceModel{})
}
