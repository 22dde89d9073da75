package database

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrVersionConflict is returned when an optimistic-concurrency write loses
// the race against a concurrent update of the same issue.
var ErrVersionConflict = errors.New("issue version conflict")

// DB is the global database instance
var DB *gorm.DB

// Connect establishes a connection to the PostgreSQL database
func Connect(dsn string, logLevel logger.LogLevel) error {
	var err error

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Database connection established")
	return nil
}

// AutoMigrate runs database migrations
func AutoMigrate() error {
	log.Println("Running database migrations...")

	err := DB.AutoMigrate(
		&Brand{},
		&Location{},
		&Issue{},
		&LinkedTicket{},
		&IncidentReport{},
		&TriageSettings{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// InitializeDefaults creates default records if they don't exist
func InitializeDefaults() error {
	if _, err := GetOrCreateTriageSettings(DB); err != nil {
		return fmt.Errorf("failed to initialize triage settings: %w", err)
	}
	return nil
}

// GetOrCreateTriageSettings retrieves or creates triage settings (singleton).
// Accepts a db parameter to support dependency injection, transaction
// contexts, and easier testing.
func GetOrCreateTriageSettings(db *gorm.DB) (*TriageSettings, error) {
	var settings TriageSettings
	result := db.First(&settings)
	if result.Error == gorm.ErrRecordNotFound {
		settings = *NewDefaultTriageSettings()
		if err := db.Create(&settings).Error; err != nil {
			return nil, err
		}
	} else if result.Error != nil {
		return nil, result.Error
	}
	return &settings, nil
}

// UpdateTriageSettings updates triage settings
func UpdateTriageSettings(db *gorm.DB, settings *TriageSettings) error {
	return db.Save(settings).Error
}

// SeedReferenceData upserts brand and location reference rows. Used at
// startup when the deployment carries static organizational data.
func SeedReferenceData(db *gorm.DB, brands []Brand, locations []Location) error {
	for _, b := range brands {
		var existing Brand
		err := db.Where("brand_id = ?", b.BrandID).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			if err := db.Create(&b).Error; err != nil {
				return fmt.Errorf("failed to create brand %s: %w", b.BrandID, err)
			}
			continue
		}
		if err != nil {
			return err
		}
		if err := db.Model(&existing).Updates(map[string]interface{}{"name": b.Name}).Error; err != nil {
			return err
		}
	}

	for _, l := range locations {
		var existing Location
		err := db.Where("location_id = ?", l.LocationID).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			if err := db.Create(&l).Error; err != nil {
				return fmt.Errorf("failed to create location %s: %w", l.LocationID, err)
			}
			continue
		}
		if err != nil {
			return err
		}
		updates := map[string]interface{}{
			"brand_id":      l.BrandID,
			"name":          l.Name,
			"total_members": l.TotalMembers,
		}
		if err := db.Model(&existing).Updates(updates).Error; err != nil {
			return err
		}
	}

	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}

// Close closes the database connection
func Close() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
