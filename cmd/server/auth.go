package main

import (
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenTTL = 12 * time.Hour

type authService struct {
	db        *sql.DB
	jwtSecret []byte
}

func newAuthService(db *sql.DB, jwtSecret string) *authService {
	return &authService{db: db, jwtSecret: []byte(jwtSecret)}
}

// validateCredentials checks an email/password pair and returns the user's
// role when they match.
func (a *authService) validateCredentials(email, password string) (string, bool, error) {
	var passwordHash, role string
	err := a.db.QueryRow(`SELECT password_hash, role FROM users WHERE email = ?`, email).Scan(&passwordHash, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query user credentials: %w", err)
	}

	providedHash := hashPassword(password)
	if subtle.ConstantTimeCompare([]byte(passwordHash), []byte(providedHash)) == 1 {
		return role, true, nil
	}

	return "", false, nil
}

func (a *authService) ensureAdminUser(email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	var exists bool
	err := a.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`, email).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check admin user existence: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := a.db.Exec(`INSERT INTO users (email, password_hash, role) VALUES (?, ?, 'admin')`, email, hashPassword(password)); err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}

	return nil
}

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

type userClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// issueToken creates a signed HS256 token carrying the user's email and role.
func (a *authService) issueToken(email, role string) (string, error) {
	now := time.Now()
	claims := userClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// verifyToken parses and validates a bearer token, returning the subject
// email and role.
func (a *authService) verifyToken(tokenString string) (string, string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &userClaims{}, func(_ *jwt.Token) (any, error) {
		return a.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", "", fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*userClaims)
	if !ok || !token.Valid {
		return "", "", fmt.Errorf("invalid token claims")
	}

	return claims.Subject, claims.Role, nil
}
