package kv

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	ForgetPasswordPrefix = "forget-password:"
	ResetTokenTTL        = 3 * 24 * time.Hour
)

var ErrTokenNotFound = errors.New("token not found or expired")

// ResetTokens maps single-use password reset tokens to user ids.
type ResetTokens struct {
	db  *DB
	ttl time.Duration
}

func NewResetTokens(db *DB) *ResetTokens {
	return &ResetTokens{db: db, ttl: ResetTokenTTL}
}

func (r *ResetTokens) Issue(ctx context.Context, userID uint) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	token := uuid.NewString()
	value := []byte(strconv.FormatUint(uint64(userID), 10))
	if err := r.db.set([]byte(ForgetPasswordPrefix+token), value, r.ttl); err != nil {
		return "", err
	}
	return token, nil
}

func (r *ResetTokens) Lookup(ctx context.Context, token string) (uint, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	value, err := r.db.get([]byte(ForgetPasswordPrefix + token))
	if err != nil {
		return 0, err
	}
	if value == nil {
		return 0, ErrTokenNotFound
	}
	id, err := strconv.ParseUint(string(value), 10, 64)
	if err != nil {
		return 0, ErrTokenNotFound
	}
	return uint(id), nil
}

func (r *ResetTokens) Delete(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.delete([]byte(ForgetPasswordPrefix + token))
}
