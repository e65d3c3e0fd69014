package main

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/Yatesh03/Fintract-lite/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var db *gorm.DB

func initDB() {
	var err error
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN is not set. This project requires a Postgres DSN in DB_DSN.")
	}
	db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect postgres database:", err)
	}
	// Control schema migrations with env DB_AUTO_MIGRATE (default true). Any permission errors will be logged and ignored.
	shouldMigrate := true
	if v := os.Getenv("DB_AUTO_MIGRATE"); v != "" {
		lv := strings.ToLower(v)
		if lv == "false" || lv == "0" || lv == "no" {
			shouldMigrate = false
		}
	}
	if shouldMigrate {
		migrateModels(db)
	}
	// Ensure avatar upload directory exists
	ensureUploadBase()
}

// migrateModels runs AutoMigrate per model so a failure on one doesn't block others.
// The unique index on savings.user_id is what guarantees at most one ledger per user.
func migrateModels(gdb *gorm.DB) {
	if err := gdb.AutoMigrate(&models.User{}); err != nil {
		log.Printf("migration warning (users): %v", err)
	}
	if err := gdb.AutoMigrate(&models.Transaction{}); err != nil {
		log.Printf("migration warning (transactions): %v", err)
	}
	if err := gdb.AutoMigrate(&models.Savings{}); err != nil {
		log.Printf("migration warning (savings): %v", err)
	}
	if err := gdb.AutoMigrate(&models.SavingsEntry{}); err != nil {
		log.Printf("migration warning (savings_entries): %v", err)
	}
	if err := gdb.AutoMigrate(&models.RefreshToken{}); err != nil {
		log.Printf("migration warning (refresh_tokens): %v", err)
	}
}

// ensureUploadBase creates the base directory for profile picture uploads.
func ensureUploadBase() {
	base := uploadBaseDir()
	if err := os.MkdirAll(base, 0755); err != nil {
		log.Printf("failed to create upload base dir %s: %v", base, err)
	}
}

// ensureDirFor creates the parent directory of path.
func ensureDirFor(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0755)
}

// uploadBaseDir returns the base directory for local uploads (configurable via UPLOAD_BASE env)
func uploadBaseDir() string {
	if v := os.Getenv("UPLOAD_BASE"); v != "" {
		return v
	}
	return "uploads"
}
