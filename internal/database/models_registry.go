package database

import "codecrew/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
// Order matters for AutoMigrate: parents before children.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Domain{},
		&models.Subdomain{},
		&models.Category{},
		&models.TechStack{},
		&models.Language{},
		&models.Topic{},
		&models.Problem{},
		&models.Answer{},
		&models.Comment{},
		&models.Vote{},
		&models.Bookmark{},
	}
}
