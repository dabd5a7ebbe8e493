package storage

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/bk001juma/api-matengenezo/internal/cache"
	"github.com/bk001juma/api-matengenezo/internal/model"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrRefreshTokenNotFound = errors.New("invalid or expired refresh token")
)

// KV is the subset of the Redis cache used for token versions. SetMax must
// never replace a stored number with a smaller one.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetMax(ctx context.Context, key string, value int64, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

const tokenVersionTTL = time.Hour

// Users stores accounts and refresh tokens. Token versions are cached in
// Redis when a cache is configured; the database stays authoritative.
type Users struct {
	db    *gorm.DB
	cache KV
}

// NewUsers returns a user store. kv may be nil.
func NewUsers(db *gorm.DB, kv KV) *Users {
	return &Users{db: db, cache: kv}
}

func (s *Users) Create(ctx context.Context, u *model.User) error {
	return s.db.WithContext(ctx).Create(u).Error
}

func (s *Users) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return s.findOne(ctx, "id = ?", id)
}

func (s *Users) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.findOne(ctx, "generated_username = ?", username)
}

func (s *Users) findOne(ctx context.Context, query string, args ...interface{}) (*model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).Where(query, args...).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Exists reports whether any user has column == value. column must be a
// trusted identifier.
func (s *Users) Exists(ctx context.Context, column, value string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.User{}).Where(column+" = ?", value).Count(&count).Error
	return count > 0, err
}

func (s *Users) StoreRefreshToken(ctx context.Context, t *model.RefreshToken) error {
	return s.db.WithContext(ctx).Create(t).Error
}

// ActiveRefreshToken returns the unrevoked, unexpired token row.
func (s *Users) ActiveRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	var rt model.RefreshToken
	err := s.db.WithContext(ctx).
		Where("token = ? AND revoked = ? AND expires_at > ?", token, false, time.Now()).
		First(&rt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRefreshTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

// RevokeAll revokes every refresh token of the user and bumps the token
// version so previously issued access tokens stop validating.
func (s *Users) RevokeAll(ctx context.Context, userID int64) error {
	var version int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.RefreshToken{}).
			Where("user_id = ? AND revoked = ?", userID, false).
			Update("revoked", true).Error; err != nil {
			return err
		}
		result := tx.Model(&model.User{}).
			Where("id = ?", userID).
			Update("token_version", gorm.Expr("token_version + 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return tx.Model(&model.User{}).
			Select("token_version").
			Where("id = ?", userID).
			Row().Scan(&version)
	})
	if err != nil {
		return err
	}

	// A concurrent TokenVersion may still be holding the old value; SetMax
	// keeps its late write from undoing the bump.
	if s.cache != nil {
		key := cache.TokenVersionKey(userID)
		if err := s.cache.SetMax(ctx, key, version, tokenVersionTTL); err != nil {
			log.Printf("Warning: Failed to cache token version for user %d: %v", userID, err)
			if err := s.cache.Delete(ctx, key); err != nil {
				log.Printf("Warning: Failed to drop cached token version for user %d: %v", userID, err)
			}
		}
	}
	return nil
}

// TokenVersion returns the user's current access-token version.
func (s *Users) TokenVersion(ctx context.Context, userID int64) (int64, error) {
	key := cache.TokenVersionKey(userID)
	if s.cache != nil {
		if b, err := s.cache.Get(ctx, key); err == nil {
			if v, err := strconv.ParseInt(string(b), 10, 64); err == nil {
				return v, nil
			}
		} else if !errors.Is(err, cache.ErrMiss) {
			log.Printf("Warning: Failed to read cached token version: %v", err)
		}
	}

	var u model.User
	err := s.db.WithContext(ctx).Select("id", "token_version").First(&u, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.SetMax(ctx, key, u.TokenVersion, tokenVersionTTL); err != nil {
			log.Printf("Warning: Failed to cache token version: %v", err)
		}
	}
	return u.TokenVersion, nil
}
