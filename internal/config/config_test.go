package config

import (
	"os"
	"path/filepath"
	"testing"

	"velora/internal/models"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return configPath
}

func TestLoadConfig(t *testing.T) {
	configPath := writeConfig(t, `
booking_api:
  base_url: "https://api.example.com/v1"
storage:
  backend: memory
services:
  - id: swedish-massage
    name: "Swedish Massage"
    category: massage
    duration: 60
    base_price: 50
    currency: USD
    therapist_level: senior
    time_slots: ["10:00 AM", "2:30 PM"]
    add_ons:
      - id: hot-stones
        name: "Hot Stones"
        price: 20
        duration: 15
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.BookingAPI.BaseURL != "https://api.example.com/v1" {
		t.Errorf("unexpected base_url: %s", cfg.BookingAPI.BaseURL)
	}

	if len(cfg.Services) != 1 || cfg.Services[0].ID != "swedish-massage" {
		t.Fatalf("expected 1 service with id swedish-massage")
	}

	if len(cfg.Services[0].AddOns) != 1 || cfg.Services[0].AddOns[0].Price != 20 {
		t.Errorf("add-on not parsed")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	configPath := writeConfig(t, `
booking_api:
  base_url: "https://api.example.com/v1"
storage:
  backend: memory
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Storage.Key != models.DefaultStorageKey {
		t.Errorf("expected default storage key, got %s", cfg.Storage.Key)
	}
	if cfg.Booking.HorizonDays != models.DefaultBookingHorizonDays {
		t.Errorf("expected default horizon, got %d", cfg.Booking.HorizonDays)
	}
	if cfg.BookingAPI.TimeoutSeconds != 25 {
		t.Errorf("expected default timeout 25, got %d", cfg.BookingAPI.TimeoutSeconds)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.API.Port)
	}
}

func TestValidateConfig(t *testing.T) {
	t.Run("MissingBaseURL", func(t *testing.T) {
		cfg := &Config{}
		cfg.applyDefaults()
		cfg.BookingAPI.BaseURL = ""
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for missing base_url")
		}
	})

	t.Run("UnknownBackend", func(t *testing.T) {
		cfg := &Config{}
		cfg.applyDefaults()
		cfg.BookingAPI.BaseURL = "https://api.example.com"
		cfg.Storage.Backend = "etcd"
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for unknown backend")
		}
	})

	t.Run("SqliteRequiresPath", func(t *testing.T) {
		cfg := &Config{}
		cfg.applyDefaults()
		cfg.BookingAPI.BaseURL = "https://api.example.com"
		cfg.Storage.Backend = "sqlite"
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for sqlite without database path")
		}
	})
}

func TestValidateServices(t *testing.T) {
	t.Run("DuplicateServiceID", func(t *testing.T) {
		services := []models.Service{
			{ID: "a", Name: "A"},
			{ID: "a", Name: "A again"},
		}
		if err := ValidateServices(services); err == nil {
			t.Error("expected duplicate id error")
		}
	})

	t.Run("EmptyServiceID", func(t *testing.T) {
		if err := ValidateServices([]models.Service{{Name: "no id"}}); err == nil {
			t.Error("expected empty id error")
		}
	})

	t.Run("DuplicateAddOnID", func(t *testing.T) {
		services := []models.Service{{
			ID:   "a",
			Name: "A",
			AddOns: []models.AddOn{
				{ID: "x", Name: "X"},
				{ID: "x", Name: "X again"},
			},
		}}
		if err := ValidateServices(services); err == nil {
			t.Error("expected duplicate add-on id error")
		}
	})

	t.Run("Valid", func(t *testing.T) {
		services := []models.Service{{
			ID:        "a",
			Name:      "A",
			BasePrice: 10,
			AddOns:    []models.AddOn{{ID: "x", Name: "X", Price: 5}},
		}}
		if err := ValidateServices(services); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
