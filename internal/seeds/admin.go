package seeds

import (
	"fmt"
	"log"
	"os"

	"github.com/CivicSetu/CS-Backend/internal/auth"
	"github.com/CivicSetu/CS-Backend/internal/db"
	"github.com/CivicSetu/CS-Backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedAdmin bootstraps the first admin account from ADMIN_USERNAME and
// ADMIN_PASSWORD. Registration is admin-gated, so without this there is no
// way to create the first login.
func SeedAdmin() error {
	username := os.Getenv("ADMIN_USERNAME")
	password := os.Getenv("ADMIN_PASSWORD")
	if username == "" || password == "" {
		log.Println("⚠️ ADMIN_USERNAME / ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}

	var existing auth.User
	err := db.DB.First(&existing, "username = ?", username).Error
	if err == nil {
		log.Printf("⚠️ Admin exists, skipping: %s", username)
		return nil
	} else if err != gorm.ErrRecordNotFound {
		return fmt.Errorf("DB error on admin %s: %w", username, err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	user := auth.User{
		UserID:         utils.GenerateUUID(),
		Username:       username,
		HashedPassword: string(hashed),
		Role:           "admin",
		FullName:       "Municipal Administrator",
	}
	if err := db.DB.Create(&user).Error; err != nil {
		return fmt.Errorf("failed to create admin %s: %w", username, err)
	}

	log.Printf("✅ Seeded admin account %s", username)
	return nil
}
