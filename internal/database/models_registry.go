package database

import "sitehub/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Profile{},
		&models.Category{},
		&models.Blog{},
		&models.ContactSubmission{},
		&models.Customer{},
		&models.Product{},
		&models.Order{},
	}
}
