package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"warungmadura/internal/domain"
	"warungmadura/internal/repository"
)

// ErrUnauthenticated токен отсутствует, не проходит проверку или отозван
var ErrUnauthenticated = errors.New("unauthenticated")

// Claims полезная нагрузка токена провайдера аутентификации
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Keys подпись и проверка HS256-токенов
type Keys struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewKeys(secret string, ttl time.Duration) *Keys {
	return &Keys{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue выпускает токен для пользователя (демо-режим и тесты)
func (k *Keys) Issue(userID uuid.UUID, email string) (string, error) {
	now := k.now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(k.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(k.secret)
}

func (k *Keys) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return k.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(k.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	return claims, nil
}

// Session проверенная личность вызывающего и его роли
type Session struct {
	UserID    uuid.UUID     `json:"user_id"`
	Email     string        `json:"email"`
	Roles     []domain.Role `json:"roles"`
	TokenID   string        `json:"-"`
	ExpiresAt time.Time     `json:"expires_at"`
}

func (s Session) HasRole(role domain.Role) bool {
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (s Session) IsAdmin() bool { return s.HasRole(domain.RoleAdmin) }

// Manager устанавливает сессии по bearer-токену и ведёт список отозванных jti
type Manager struct {
	keys  *Keys
	roles repository.RoleRepository

	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewManager(keys *Keys, roles repository.RoleRepository) *Manager {
	return &Manager{keys: keys, roles: roles, revoked: make(map[string]time.Time)}
}

// Establish проверяет токен и подгружает роли пользователя
func (m *Manager) Establish(ctx context.Context, bearer string) (Session, error) {
	token := strings.TrimSpace(bearer)
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	if token == "" {
		return Session{}, ErrUnauthenticated
	}
	claims, err := m.keys.Parse(token)
	if err != nil {
		return Session{}, err
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Session{}, fmt.Errorf("%w: bad subject", ErrUnauthenticated)
	}
	if claims.ID == "" {
		return Session{}, fmt.Errorf("%w: missing jti", ErrUnauthenticated)
	}
	if m.isRevoked(claims.ID) {
		return Session{}, fmt.Errorf("%w: token revoked", ErrUnauthenticated)
	}
	roles, err := m.roles.Roles(ctx, userID)
	if err != nil {
		return Session{}, fmt.Errorf("load roles: %w", err)
	}
	return Session{
		UserID:    userID,
		Email:     claims.Email,
		Roles:     roles,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Invalidate выход: токен сессии отклоняется до истечения срока
func (m *Manager) Invalidate(s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.keys.now()
	for id, exp := range m.revoked {
		if now.After(exp) {
			delete(m.revoked, id)
		}
	}
	if s.TokenID != "" {
		m.revoked[s.TokenID] = s.ExpiresAt
	}
}

func (m *Manager) isRevoked(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[id]
	return ok
}
