package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ByMatthewNeal/Arkline-sub006/internal/auth"
	"github.com/ByMatthewNeal/Arkline-sub006/internal/models"
)

// InitDB initializes the database connection and runs migrations.
// Supports both PostgreSQL (via DATABASE_URL, the hosted deployment) and
// SQLite (via dbPath for local dev).
func InitDB(dbPath string) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	databaseURL := os.Getenv("DATABASE_URL")

	if databaseURL != "" {
		fmt.Println("Using PostgreSQL database")

		// Hosted connection strings come as postgres://
		if strings.HasPrefix(databaseURL, "postgres://") {
			databaseURL = strings.Replace(databaseURL, "postgres://", "postgresql://", 1)
		}

		db, err = gorm.Open(postgres.Open(databaseURL), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
	} else {
		fmt.Printf("Using SQLite database: %s\n", dbPath)

		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}

		db, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
		}
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Portfolio{},
		&models.Holding{},
		&models.Transaction{},
		&models.DCAReminder{},
		&models.RiskReminder{},
		&models.Notification{},
		&models.Quote{},
		&models.PortfolioSnapshot{},
		&models.DeletedReminder{},
	); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// InitializeAdminUser creates the admin user if it doesn't exist
func InitializeAdminUser(db *gorm.DB, username, password, email string) error {
	var user models.User
	result := db.Where("username = ?", username).First(&user)

	if result.Error == gorm.ErrRecordNotFound {
		hashedPassword, err := auth.HashPassword(password)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		user = models.User{
			Username: username,
			Email:    email,
			Password: hashedPassword,
		}

		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		fmt.Printf("Admin user '%s' created successfully\n", username)

		return InitializeDefaultPortfolio(db, user.ID)
	}

	return nil
}

// InitializeDefaultPortfolio gives a user their first portfolio if they have
// none yet.
func InitializeDefaultPortfolio(db *gorm.DB, userID uint) error {
	var count int64
	if err := db.Model(&models.Portfolio{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count portfolios: %w", err)
	}
	if count > 0 {
		return nil
	}

	portfolio := models.Portfolio{
		UserID: userID,
		Name:   "Main Portfolio",
	}
	if err := db.Create(&portfolio).Error; err != nil {
		return fmt.Errorf("failed to create default portfolio: %w", err)
	}

	return nil
}
