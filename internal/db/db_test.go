package db

import (
	"path/filepath"
	"testing"

	"github.com/Leganyst/salon-booking/internal/config"
	"github.com/Leganyst/salon-booking/internal/model"
)

func TestNewGormDB_SQLite(t *testing.T) {
	cfg := &config.DBConfig{
		Driver:       "sqlite",
		SQLitePath:   filepath.Join(t.TempDir(), "booking.db"),
		MaxOpenConns: 4,
	}

	db, err := NewGormDB(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := model.AutoMigrate(db); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	if !db.Migrator().HasTable(&model.Appointment{}) {
		t.Fatalf("appointments table missing")
	}
}

func TestNewGormDB_UnknownDriver(t *testing.T) {
	if _, err := NewGormDB(&config.DBConfig{Driver: "oracle"}); err == nil {
		t.Fatalf("expected error")
	}
}
