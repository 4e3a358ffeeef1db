// internal/database/connection.go
package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/adspoint/adspoint-backend/internal/config"
	"github.com/adspoint/adspoint-backend/internal/models"
)

var DB *gorm.DB

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var err error
	var gormConfig *gorm.Config

	// Configure GORM logger
	if cfg.LogLevel == "silent" {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		}
	} else {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Info),
		}
	}

	// Connect to database
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connection established successfully")
	return DB, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Error getting underlying sql.DB: %v", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	} else {
		log.Println("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	err := db.AutoMigrate(
		&models.User{},
		&models.Channel{},
		&models.Offer{},
		&models.OfferResponse{},
		&models.Contract{},
		&models.MonitoringTask{},
		&models.Payment{},
		&models.AuditLog{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create indexes
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// User indexes
		"CREATE INDEX IF NOT EXISTS idx_users_type_status ON users(user_type, status)",

		// Channel indexes
		"CREATE INDEX IF NOT EXISTS idx_channels_owner ON channels(owner_id)",
		"CREATE INDEX IF NOT EXISTS idx_channels_category_subs ON channels(category, subscriber_count)",

		// Offer indexes
		"CREATE INDEX IF NOT EXISTS idx_offers_owner ON offers(owner_id)",
		"CREATE INDEX IF NOT EXISTS idx_offers_status_category ON offers(status, category)",
		"CREATE INDEX IF NOT EXISTS idx_offers_created_at ON offers(created_at DESC)",

		// Response indexes
		"CREATE INDEX IF NOT EXISTS idx_responses_offer_status ON offer_responses(offer_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_responses_user ON offer_responses(user_id)",

		// Contract indexes
		"CREATE INDEX IF NOT EXISTS idx_contracts_status_deadline ON contracts(status, placement_deadline)",
		"CREATE INDEX IF NOT EXISTS idx_contracts_status_monitoring_end ON contracts(status, monitoring_end)",
		"CREATE INDEX IF NOT EXISTS idx_contracts_publisher ON contracts(publisher_id)",
		"CREATE INDEX IF NOT EXISTS idx_contracts_advertiser ON contracts(advertiser_id)",

		// Monitoring task indexes
		"CREATE INDEX IF NOT EXISTS idx_monitoring_tasks_due ON monitoring_tasks(status, next_check)",

		// Payment indexes
		"CREATE INDEX IF NOT EXISTS idx_payments_contract_type ON payments(contract_id, payment_type)",
		"CREATE INDEX IF NOT EXISTS idx_payments_publisher ON payments(publisher_id)",
		"CREATE INDEX IF NOT EXISTS idx_payments_created_at ON payments(created_at DESC)",

		// Audit indexes
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_user_action ON audit_logs(user_id, action)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_resource ON audit_logs(resource_type, resource_id)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs(created_at DESC)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			log.Printf("Warning: Failed to create index: %s, Error: %v", index, err)
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
