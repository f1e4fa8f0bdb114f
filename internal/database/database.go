package database

import (
	"time"

	"github.com/princeprakhar/review-catalog-backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Init opens the primary Postgres store and migrates the catalog schema.
func Init(databaseURL string, production bool) (*gorm.DB, error) {
	level := logger.Info
	if production {
		level = logger.Warn
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	// Auto migrate schemas
	err = db.AutoMigrate(
		&models.Product{},
		&models.Review{},
		&models.UserProfile{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}
