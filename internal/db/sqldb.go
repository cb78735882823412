package db

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/creatorstation/editorial/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect establishes a connection to the relational datastore.
func Connect(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is empty")
	}

	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Warn,
			Colorful:      false,
		},
	)

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt: false,
		Logger:      newLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	return conn, nil
}

// Migrate creates the tables the editorial engine writes to. Tables owned by
// other collaborators (candidates, feed sources, destinations) are migrated
// too so a fresh environment can boot.
func Migrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&models.Candidate{},
		&models.FeedSource{},
		&models.Draft{},
		&models.PublishedPost{},
		&models.SocialDestination{},
		&models.Setting{},
	)
}
