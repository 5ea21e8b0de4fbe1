// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/danielhkuo/voucher-vote/models"
)

var (
	ErrInvalidToken       = errors.New("invalid session token")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// VoucherPrefix starts every voucher code
const VoucherPrefix = "VOTE"

// MinPasswordLength is enforced at registration
const MinPasswordLength = 8

// PasswordCost is the bcrypt work factor for stored passwords
var PasswordCost = bcrypt.DefaultCost

// GenerateVoucherCode creates a human-shareable code like VOTE-A1B2-C3D4
// from 4 random bytes rendered as uppercase hex
func GenerateVoucherCode() (string, error) {
	b := make([]byte, 4)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate voucher code: %w", err)
	}
	s := strings.ToUpper(hex.EncodeToString(b))
	return VoucherPrefix + "-" + s[:4] + "-" + s[4:], nil
}

// NormalizeVoucherCode trims whitespace and uppercases a user-typed code
func NormalizeVoucherCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// HashPassword bcrypt-hashes a plaintext password
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a stored hash against a plaintext password
func CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// SessionClaims is the JWT payload of a session token
type SessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IssueSessionToken signs an HS256 session token for the user
func IssueSessionToken(user models.SessionUser, secret string, ttl time.Duration, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(ttl)
	claims := SessionClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseSessionToken validates signature and expiry and returns the caller
func ParseSessionToken(tokenString, secret string) (models.SessionUser, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return models.SessionUser{}, ErrInvalidToken
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return models.SessionUser{}, ErrInvalidToken
	}
	if claims.Role != models.RoleVoter && claims.Role != models.RoleAdmin {
		return models.SessionUser{}, ErrInvalidToken
	}

	return models.SessionUser{ID: id, Role: claims.Role}, nil
}
