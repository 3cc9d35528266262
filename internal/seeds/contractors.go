package seeds

import (
	"fmt"
	"log"
	"os"

	"github.com/CivicSetu/CS-Backend/internal/auth"
	"github.com/CivicSetu/CS-Backend/internal/db"
	"github.com/CivicSetu/CS-Backend/internal/registry"
	"github.com/CivicSetu/CS-Backend/internal/utils"
	"github.com/goccy/go-yaml"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type contractorFixture struct {
	Name         string `yaml:"name"`
	Username     string `yaml:"username"`
	Phone        string `yaml:"phone"`
	Email        string `yaml:"email"`
	AssignedArea string `yaml:"assigned_area"`
	Department   string `yaml:"department"`
}

type contractorFile struct {
	Contractors []contractorFixture `yaml:"contractors"`
}

// SeedContractors creates a login account and a contractor profile for each
// fixture. Accounts get a shared starter password (SEED_CONTRACTOR_PASSWORD,
// default "changeme") that crews are expected to rotate on first login.
func SeedContractors() error {
	file, err := os.ReadFile("internal/seeds/data/contractors.yaml")
	if err != nil {
		return fmt.Errorf("could not read contractors.yaml: %w", err)
	}

	var fixtures contractorFile
	if err := yaml.Unmarshal(file, &fixtures); err != nil {
		return fmt.Errorf("failed to parse contractors.yaml: %w", err)
	}

	password := os.Getenv("SEED_CONTRACTOR_PASSWORD")
	if password == "" {
		password = "changeme"
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash contractor password: %w", err)
	}

	created := 0
	for _, c := range fixtures.Contractors {
		var existing auth.User
		err := db.DB.First(&existing, "username = ?", c.Username).Error

		if err == nil {
			log.Printf("⚠️ Contractor exists, skipping: %s", c.Username)
			continue
		} else if err != gorm.ErrRecordNotFound {
			return fmt.Errorf("DB error on contractor %s: %w", c.Username, err)
		}

		user := auth.User{
			UserID:         utils.GenerateUUID(),
			Username:       c.Username,
			HashedPassword: string(hashed),
			Role:           "contractor",
			FullName:       c.Name,
			Phone:          c.Phone,
			Department:     c.Department,
		}
		contractor := registry.Contractor{
			Name:         c.Name,
			Phone:        c.Phone,
			Email:        c.Email,
			AssignedArea: c.AssignedArea,
			Department:   c.Department,
			UserID:       user.UserID,
		}

		err = db.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
			return tx.Create(&contractor).Error
		})
		if err != nil {
			return fmt.Errorf("failed to create contractor %s: %w", c.Username, err)
		}
		created++
	}

	log.Printf("✅ Seeded %d contractors", created)
	return nil
}
