// Package db opens the database connection and keeps the schema migrated
package db

import (
	"fmt"

	"mindmate/mood-api/internal/model"

	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func New() (*gorm.DB, error) {
	var dialector gorm.Dialector

	dsn := viper.GetString("db.dsn")

	switch viper.GetString("db.driver") {
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}

	err = db.AutoMigrate(&model.User{}, &model.OneTimeCode{}, &model.Mood{})
	if err != nil {
		return nil, fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return db, nil
}
