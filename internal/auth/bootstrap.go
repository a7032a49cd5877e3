package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/memorizer/internal/exam"
)

const bcryptCost = 12

// HashPassword is the bcrypt hash stored in users.password_hash.
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	return string(b), err
}

// NewUser builds a registered user with a fresh id and hashed password.
func NewUser(username, name, password string, admin bool) (exam.User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return exam.User{}, err
	}
	return exam.User{
		ID:           uuid.NewString(),
		Username:     username,
		Name:         name,
		PasswordHash: hash,
		Registered:   true,
		Admin:        admin,
	}, nil
}

// EnsureAdmin creates the configured admin account on first start. passHash
// is already a bcrypt hash. An existing user of that name is left alone.
func EnsureAdmin(ctx context.Context, users exam.Repo, username, passHash string) (bool, error) {
	if username == "" || passHash == "" {
		return false, nil
	}
	if _, err := bcrypt.Cost([]byte(passHash)); err != nil {
		return false, fmt.Errorf("ADMIN_PASS_HASH is not a bcrypt hash: %w", err)
	}
	_, err := users.FindUserByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, exam.ErrNotFound) {
		return false, err
	}
	u := exam.User{
		ID:           uuid.NewString(),
		Username:     username,
		Name:         username,
		PasswordHash: passHash,
		Registered:   true,
		Admin:        true,
	}
	if err := users.CreateUser(ctx, &u); err != nil {
		if errors.Is(err, exam.ErrConflict) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
