package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"healthhive/internal/config"
)

// InitDatabase opens the PostgreSQL connection from configuration and returns
// the GORM handle. Foreign-key constraints are not created during migration:
// deleting a user deliberately orphans their content instead of cascading.
func InitDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Warn),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap db: %w", err)
	}

	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// Migrate runs auto-migration for every model in dependency order.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Workout{},
		&NutritionPlan{},
		&BlogPost{},
		&CommunityPost{},
		&ProgressLog{},
		&Subscriber{},
	)
}
