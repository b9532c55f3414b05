package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"packtrack-system/internal/database/models"
)

func NewConnection(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		log.Fatal("DSN is required")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to get sql.DB: %v", err)
	}

	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.InventoryRecord{},
		&models.InventoryMovement{},
		&models.PackoutSheet{},
		&models.PackoutLineItem{},
		&models.PackoutReturn{},
	)
}

// SeedRoles inserts the crew roles if they are not present yet. Access
// levels: GM highest, then PM, then field crew.
func SeedRoles(db *gorm.DB) error {
	roles := []models.Role{
		{RoleName: "GM", AccessLevel: 100},
		{RoleName: "PM", AccessLevel: 80},
		{RoleName: "Chop Driver", AccessLevel: 50},
		{RoleName: "Lead Installer", AccessLevel: 50},
	}

	for _, role := range roles {
		var existing models.Role
		err := db.Where("role_name = ?", role.RoleName).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		if err := db.Create(&role).Error; err != nil {
			return err
		}
	}
	return nil
}
