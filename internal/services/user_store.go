package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/userlookup/internal/models"
	"github.com/charlesng35/userlookup/internal/monitoring"
)

// UserStore is the authoritative source of user rows.
type UserStore interface {
	// FindByID returns ErrUserNotFound when no row has the id.
	FindByID(ctx context.Context, id uint) (*models.User, error)
	// List returns every row ordered by id; an empty table yields an empty slice.
	List(ctx context.Context) ([]models.User, error)
}

// GormUserStore reads users through gorm.
type GormUserStore struct {
	db *gorm.DB
}

// NewGormUserStore constructs a GormUserStore instance.
func NewGormUserStore(db *gorm.DB) (*GormUserStore, error) {
	if db == nil {
		return nil, errors.New("user store: db is required")
	}
	return &GormUserStore{db: db}, nil
}

// FindByID performs a primary key lookup.
func (s *GormUserStore) FindByID(ctx context.Context, id uint) (*models.User, error) {
	start := time.Now()
	var user models.User
	err := s.db.WithContext(ctx).Take(&user, id).Error
	monitoring.ObserveStoreRead(keyKindUser, readResult(err), time.Since(start))
	if err != nil {
		return nil, translateStoreError(err, ErrUserNotFound)
	}
	return &user, nil
}

// List performs a full table scan.
func (s *GormUserStore) List(ctx context.Context) ([]models.User, error) {
	start := time.Now()
	users := make([]models.User, 0)
	err := s.db.WithContext(ctx).Order("id ASC").Find(&users).Error
	monitoring.ObserveStoreRead(keyKindAll, readResult(err), time.Since(start))
	if err != nil {
		return nil, translateStoreError(err, ErrNoUsers)
	}
	return users, nil
}

func readResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, gorm.ErrRecordNotFound):
		return "not_found"
	default:
		return "error"
	}
}
