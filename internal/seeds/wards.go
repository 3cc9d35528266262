package seeds

import (
	"fmt"
	"log"
	"os"

	"github.com/CivicSetu/CS-Backend/internal/db"
	"github.com/CivicSetu/CS-Backend/internal/registry"
	"github.com/goccy/go-yaml"
	"gorm.io/gorm"
)

type wardFixture struct {
	WardNumber    string `yaml:"ward_number"`
	WardName      string `yaml:"ward_name"`
	AdminName     string `yaml:"admin_name"`
	AdminPhone    string `yaml:"admin_phone"`
	AdminEmail    string `yaml:"admin_email"`
	OfficeAddress string `yaml:"office_address"`
	OfficeTiming  string `yaml:"office_timing"`
	Zone          string `yaml:"zone"`
}

type wardFile struct {
	Wards []wardFixture `yaml:"wards"`
}

func SeedWards() error {
	file, err := os.ReadFile("internal/seeds/data/wards.yaml")
	if err != nil {
		return fmt.Errorf("could not read wards.yaml: %w", err)
	}

	var fixtures wardFile
	if err := yaml.Unmarshal(file, &fixtures); err != nil {
		return fmt.Errorf("failed to parse wards.yaml: %w", err)
	}

	created := 0
	for _, w := range fixtures.Wards {
		var existing registry.Ward
		err := db.DB.First(&existing, "ward_number = ?", w.WardNumber).Error

		if err == nil {
			log.Printf("⚠️ Ward exists, skipping: %s %s", w.WardNumber, w.WardName)
			continue
		} else if err != gorm.ErrRecordNotFound {
			return fmt.Errorf("DB error on ward %s: %w", w.WardNumber, err)
		}

		ward := registry.Ward{
			WardNumber:    w.WardNumber,
			WardName:      w.WardName,
			AdminName:     w.AdminName,
			AdminPhone:    w.AdminPhone,
			AdminEmail:    w.AdminEmail,
			OfficeAddress: w.OfficeAddress,
			OfficeTiming:  w.OfficeTiming,
			Zone:          w.Zone,
		}
		if err := db.DB.Create(&ward).Error; err != nil {
			return fmt.Errorf("failed to create ward %s: %w", w.WardNumber, err)
		}
		created++
	}

	log.Printf("✅ Seeded %d wards", created)
	return nil
}
