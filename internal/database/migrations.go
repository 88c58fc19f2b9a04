package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/charlesng35/userlookup/internal/models"
)

// DefaultSeedCount is the number of synthetic users present after first start.
const DefaultSeedCount = 100

// AutoMigrate creates the tables used by the lookup API when they are missing.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.CacheEntry{},
	)
}

// SeedUsers tops the users table up to target rows with synthetic entries
// named User<n>/user<n>@example.com. Existing rows are never touched, so
// running it repeatedly never grows the table past target. Queries run under
// the context carried by db.
func SeedUsers(db *gorm.DB, target int) (int, error) {
	if target <= 0 {
		return 0, nil
	}

	var existing int64
	if err := db.Model(&models.User{}).Count(&existing).Error; err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	if existing >= int64(target) {
		return 0, nil
	}

	rows := make([]models.User, 0, target-int(existing))
	for i := int(existing) + 1; i <= target; i++ {
		rows = append(rows, models.User{
			Name:  fmt.Sprintf("User%d", i),
			Email: fmt.Sprintf("user%d@example.com", i),
		})
	}

	if err := db.CreateInBatches(rows, 100).Error; err != nil {
		return 0, fmt.Errorf("insert users: %w", err)
	}

	return len(rows), nil
}
