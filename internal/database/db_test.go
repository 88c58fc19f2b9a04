package database

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/userlookup/internal/models"
)

func TestOpenSQLiteMemory(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Exec("SELECT 1").Error)
}

func TestOpenSQLiteMemoryIsolatedPerHandle(t *testing.T) {
	first := openTestDB(t)
	second := openTestDB(t)

	require.NoError(t, AutoMigrate(first))
	_, err := SeedUsers(first, 3)
	require.NoError(t, err)

	require.False(t, second.Migrator().HasTable(&models.User{}))
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	require.ErrorContains(t, err, `unsupported database driver "oracle"`)
}

func TestAutoMigrateAndSeed(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, AutoMigrateAndSeed(db, DefaultSeedCount))

	migrator := db.Migrator()
	require.True(t, migrator.HasTable(&models.User{}))
	require.True(t, migrator.HasTable(&models.CacheEntry{}))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	require.EqualValues(t, DefaultSeedCount, count)

	var first models.User
	require.NoError(t, db.First(&first, 1).Error)
	require.Equal(t, models.User{ID: 1, Name: "User1", Email: "user1@example.com"}, first)
}

func TestSeedUsersIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, AutoMigrate(db))

	inserted, err := SeedUsers(db, 10)
	require.NoError(t, err)
	require.Equal(t, 10, inserted)

	inserted, err = SeedUsers(db, 10)
	require.NoError(t, err)
	require.Zero(t, inserted)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	require.EqualValues(t, 10, count)
}

func TestSeedUsersTopsUpPartialTable(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, AutoMigrate(db))
	require.NoError(t, db.Create(&models.User{Name: "Existing", Email: "existing@example.com"}).Error)

	inserted, err := SeedUsers(db, 5)
	require.NoError(t, err)
	require.Equal(t, 4, inserted)

	var users []models.User
	require.NoError(t, db.Order("id").Find(&users).Error)
	require.Len(t, users, 5)
	require.Equal(t, "Existing", users[0].Name)
	require.Equal(t, "User2", users[1].Name)
	require.Equal(t, "user5@example.com", users[4].Email)
}

func TestSeedUsersDisabled(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, AutoMigrateAndSeed(db, 0))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	require.Zero(t, count)
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Open(Config{Driver: "sqlite"})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}
