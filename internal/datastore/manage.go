package datastore

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// allModels lists every model in dependency order, parents before children.
func allModels() []any {
	return []any{
		&Report{},
		&AudioReport{},
		&LocationReport{},
		&PlacemarkReport{},
		&WeatherReport{},
		&AltitudeReport{},
		&Question{},
		&Response{},
	}
}

// performAutoMigration automates database migrations with error handling.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	if err := db.AutoMigrate(allModels()...); err != nil {
		return fmt.Errorf("failed to auto-migrate %s database: %w", dbType, err)
	}

	if debug {
		log.Printf("%s database connection initialized: %s", dbType, connectionInfo)
	}

	return nil
}

// Setup creates or updates the full schema.
func (ds *DataStore) Setup() error {
	if ds.DB == nil {
		return fmt.Errorf("database connection is not initialized")
	}
	if err := ds.DB.AutoMigrate(allModels()...); err != nil {
		return fmt.Errorf("failed to set up schema: %w", err)
	}
	return nil
}

// Teardown drops every table, children before parents so foreign keys do not
// block the drop.
func (ds *DataStore) Teardown() error {
	if ds.DB == nil {
		return fmt.Errorf("database connection is not initialized")
	}
	models := allModels()
	for i := len(models) - 1; i >= 0; i-- {
		if err := ds.DB.Migrator().DropTable(models[i]); err != nil {
			return fmt.Errorf("failed to drop table for %T: %w", models[i], err)
		}
	}
	return nil
}

// createGormLogger configures and returns a new GORM logger instance.
func createGormLogger() logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}
