package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"golivehub/internal/config"
	"golivehub/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DSN builds the postgres connection string for cfg
func DSN(cfg config.DatabaseConfig) string {
	if cfg.URL != "" {
		return cfg.URL
	}

	// Build DSN without empty password parameter
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.DBName, cfg.SSLMode,
	)

	// Only add password if it's not empty
	if cfg.Password != "" {
		dsn = fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
		)
	}
	return dsn
}

// Open establishes a connection to the PostgreSQL database
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(DSN(cfg)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Successfully connected to database")
	return db, nil
}

// Migrate runs database migrations
func Migrate(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database connection not established")
	}

	if err := models.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// Close closes the database connection
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// IsPostgres reports whether db talks to PostgreSQL. Row locks and
// request-scoped settings are only issued there.
func IsPostgres(db *gorm.DB) bool {
	return db.Dialector != nil && db.Dialector.Name() == "postgres"
}

// Identity is the caller a scoped handle acts for
type Identity struct {
	Role   string                 // "authenticated" or "anon"
	Claims map[string]interface{} // Verified token claims
}

// Subject returns the "sub" claim, empty for anonymous callers
func (i Identity) Subject() string {
	sub, _ := i.Claims["sub"].(string)
	return sub
}

// Scope runs fn inside a transaction bound to ctx. On postgres the
// transaction carries the caller's role and claims so row-level security
// policies see the same identity the bearer token proved.
func Scope(ctx context.Context, db *gorm.DB, identity Identity, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if IsPostgres(tx) {
			claims, err := json.Marshal(identity.Claims)
			if err != nil {
				return fmt.Errorf("failed to encode request claims: %w", err)
			}
			if err := tx.Exec("SELECT set_config('request.jwt.claims', ?, true)", string(claims)).Error; err != nil {
				return fmt.Errorf("failed to set request claims: %w", err)
			}
			if identity.Role != "" {
				if err := tx.Exec("SELECT set_config('role', ?, true)", identity.Role).Error; err != nil {
					return fmt.Errorf("failed to set request role: %w", err)
				}
			}
		}
		return fn(tx)
	})
}
