package auth

import (
	"context"
	"time"

	"pizza-service/models"

	"gorm.io/gorm"
)

// Session is the server-side record of an issued token.
type Session struct {
	ID        string
	UserID    uint
	ExpiresAt time.Time
}

// SessionStore is the registry of live tokens. A token whose session is
// missing is treated as revoked.
type SessionStore interface {
	Save(ctx context.Context, session Session) error
	Exists(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}

type GormSessionStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormSessionStore(db *gorm.DB) *GormSessionStore {
	return &GormSessionStore{db: db, now: time.Now}
}

func (s *GormSessionStore) Save(ctx context.Context, session Session) error {
	return s.db.WithContext(ctx).Create(&models.AuthSession{
		JTI:       session.ID,
		UserID:    session.UserID,
		ExpiresAt: session.ExpiresAt,
	}).Error
}

func (s *GormSessionStore) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.AuthSession{}).
		Where("jti = ? AND expires_at > ?", id, s.now()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *GormSessionStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Where("jti = ?", id).Delete(&models.AuthSession{}).Error
}

// PurgeExpired removes sessions past their expiry and returns how many were dropped.
func (s *GormSessionStore) PurgeExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Where("expires_at <= ?", s.now()).Delete(&models.AuthSession{})
	return result.RowsAffected, result.Error
}
