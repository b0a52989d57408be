// Package auth signs operators in and issues the bearer tokens the RF
// terminals send with every keystroke.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ahmadzakiakmal/rf-receiving/repository"
	"github.com/ahmadzakiakmal/rf-receiving/repository/models"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"k8s.io/utils/clock"
)

var (
	ErrInvalidCredentials = errors.New("operator id or password is wrong")
	ErrInactiveOperator   = errors.New("operator is not active")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// OperatorStore is the part of the store login needs
type OperatorStore interface {
	GetOperator(ctx context.Context, id string) (*models.Operator, error)
}

// Claims identify the operator and terminal behind a request
type Claims struct {
	OperatorID string `json:"operator_id"`
	TerminalID string `json:"terminal_id"`
	Facility   string `json:"facility"`
	jwt.RegisteredClaims
}

// Authenticator checks passwords and signs HS256 tokens
type Authenticator struct {
	store  OperatorStore
	secret []byte
	ttl    time.Duration
	clock  clock.PassiveClock
}

func NewAuthenticator(store OperatorStore, secret string, ttl time.Duration, clk clock.PassiveClock) *Authenticator {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Authenticator{store: store, secret: []byte(secret), ttl: ttl, clock: clk}
}

// Login verifies the operator's password and returns a signed token
func (a *Authenticator) Login(ctx context.Context, operatorID, password, terminalID string) (string, *Claims, error) {
	operatorID = strings.ToUpper(strings.TrimSpace(operatorID))
	if operatorID == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}

	op, err := a.store.GetOperator(ctx, operatorID)
	if err != nil {
		if repository.IsNotFound(err) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to read operator: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if !op.Active {
		return "", nil, ErrInactiveOperator
	}

	now := a.clock.Now()
	claims := &Claims{
		OperatorID: op.ID,
		TerminalID: strings.TrimSpace(terminalID),
		Facility:   op.Facility,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   op.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, claims, nil
}

// Parse validates a token and returns its claims
func (a *Authenticator) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.clock.Now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.OperatorID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" header
func BearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// HashPassword is the bcrypt hash stored for an operator
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
