package services

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims — полезная нагрузка сессионного токена.
type Claims struct {
	UserID   string `json:"user_id"`
	UserType string `json:"user_type"`
	jwt.RegisteredClaims
}

// TokenService — выпуск и проверка JWT (HS256).
// Просроченный и битый токен снаружи неразличимы: оба — ErrInvalidToken.
type TokenService struct {
	secret []byte

	SessionTTL  time.Duration // базовая сессия, 24h
	RememberTTL time.Duration // "запомнить меня", 7 суток

	// Now подменяется в тестах.
	Now func() time.Time

	// Отзыв по jti. Токены сейчас живут до истечения срока; набор нужен,
	// чтобы операторский отзыв можно было добавить без смены формата.
	mu      sync.RWMutex
	revoked map[string]struct{}
}

func NewTokenService(secret string, sessionTTL, rememberTTL time.Duration) *TokenService {
	return &TokenService{
		secret:      []byte(secret),
		SessionTTL:  sessionTTL,
		RememberTTL: rememberTTL,
		Now:         time.Now,
		revoked:     make(map[string]struct{}),
	}
}

// Issue выпускает токен с заданным сроком жизни.
func (s *TokenService) Issue(userID, userType string, ttl time.Duration) (string, error) {
	now := s.Now()
	claims := &Claims{
		UserID:   userID,
		UserType: userType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *TokenService) IssueSession(userID, userType string, remember bool) (string, error) {
	ttl := s.SessionTTL
	if remember {
		ttl = s.RememberTTL
	}
	return s.Issue(userID, userType, ttl)
}

// Validate — подпись, срок и отзыв проверяются разом; любой провал
// отдаёт одинаковый ErrInvalidToken, чтобы не подсказывать причину.
func (s *TokenService) Validate(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		// принимаем только HMAC
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.Now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.Time.After(s.Now()) {
		return nil, ErrInvalidToken
	}
	if s.isRevoked(claims.ID) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *TokenService) Revoke(jti string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[jti] = struct{}{}
}

func (s *TokenService) isRevoked(jti string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.revoked[jti]
	return ok
}
