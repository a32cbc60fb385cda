package datastore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sentitrack/sentitrack/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// Open connects to the relational store. driver is "postgres" (the hosted
// store) or "sqlite" (a local file, used for development and tests).
func Open(driver, dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	var (
		db  *gorm.DB
		err error
	)
	switch driver {
	case "postgres":
		db, err = gorm.Open(postgres.Open(dsn), cfg)
	case "sqlite":
		db, err = gorm.Open(sqlite.Dialector{
			DriverName: "sqlite",
			DSN:        sqliteDSN(dsn),
		}, cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	logrus.Infof("Connected to %s data store", driver)
	return db, nil
}

// sqliteDSN creates the parent directory for file databases and enables the
// pragmas the store relies on.
func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" {
			_ = os.MkdirAll(dir, 0o755)
		}
	}
	return path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)"
}

// AutoMigrate creates or updates every table the dashboard reads.
func AutoMigrate(db *gorm.DB) error {
	logrus.Info("Auto migrating data store tables...")
	err := db.AutoMigrate(
		&models.Brand{},
		&models.Product{},
		&models.Post{},
		&models.PostProduct{},
		&models.Sentiment{},
		&models.Emotion{},
		&models.Engagement{},
		&models.Alert{},
	)
	if err != nil {
		return fmt.Errorf("auto migration failed: %w", err)
	}
	return nil
}
