// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
//
// Users are looked up by email; username and email are both unique and a
// violation of either surfaces as ErrDuplicate.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/aoubot-backend/internal/domain"
)

// CreateUser inserts a new user row. It returns ErrDuplicate when the
// username or email is already taken.
func CreateUser(ctx context.Context, db *gorm.DB, username, email, passwordHash string) (*domain.User, error) {
	u := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
	}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		if isDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return u, nil
}

// GetUserByEmail fetches a user by exact email, or ErrNotFound.
func GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// UserIDByEmail resolves an email to its user id. An unknown email yields
// 0 and a nil error.
func UserIDByEmail(ctx context.Context, db *gorm.DB, email string) (uint, error) {
	var row struct{ ID uint }
	err := db.WithContext(ctx).
		Model(&domain.User{}).
		Select("id").
		Where("email = ?", email).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return row.ID, nil
}

// UpdatePasswordHash replaces the stored hash of user id.
func UpdatePasswordHash(ctx context.Context, db *gorm.DB, id uint, passwordHash string) error {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Update("password", passwordHash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
