package app

import (
	"errors"
	"fmt"
	"time"

	"courtside/internal/domain"

	"github.com/form3tech-oss/jwt-go"
	"github.com/google/uuid"
)

var (
	ErrTokenInvalid    = errors.New("scorer token is invalid")
	ErrTokenWrongMatch = errors.New("scorer token was issued for another match")
	ErrTokensDisabled  = errors.New("scorer tokens are disabled: no signing secret")
)

// ScorerGrant is what a verified scorer token allows.
type ScorerGrant struct {
	MatchID   string
	TokenID   string
	Side      domain.Side // NoSide means either side may be scored
	ExpiresAt time.Time
}

// Allows reports whether the grant permits scoring a point for side.
func (g ScorerGrant) Allows(side domain.Side) bool {
	return g.Side == domain.NoSide || g.Side == side
}

// ScorerTokenService issues and verifies HS256 tokens that let a device
// (a phone, a button bridge) score in one match.
type ScorerTokenService struct {
	secret string
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewScorerTokenService(secret, issuer string, ttl time.Duration) *ScorerTokenService {
	return &ScorerTokenService{
		secret: secret,
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a token for matchID, optionally locked to side.
func (s *ScorerTokenService) Issue(matchID string, side domain.Side) (string, error) {
	if s == nil {
		return "", fmt.Errorf("scorer token service is nil")
	}
	if matchID == "" {
		return "", fmt.Errorf("match id is required")
	}
	if s.secret == "" {
		return "", ErrTokensDisabled
	}
	if s.issuer == "" {
		return "", fmt.Errorf("scorer token config is incomplete")
	}

	issued := s.now()
	claims := jwt.MapClaims{
		"iss":  s.issuer,
		"sub":  matchID,
		"iat":  issued.Unix(),
		"exp":  issued.Add(s.ttl).Unix(),
		"jti":  uuid.NewString(),
		"side": side.String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

// Verify checks the signature, issuer, expiry and match of raw. A service
// without a secret accepts nothing.
func (s *ScorerTokenService) Verify(raw, matchID string) (ScorerGrant, error) {
	if s == nil || raw == "" {
		return ScorerGrant{}, ErrTokenInvalid
	}
	if s.secret == "" {
		return ScorerGrant{}, ErrTokensDisabled
	}

	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil || !parsed.Valid {
		return ScorerGrant{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !claims.VerifyIssuer(s.issuer, true) {
		return ScorerGrant{}, ErrTokenInvalid
	}

	sub, _ := claims["sub"].(string)
	if sub != matchID {
		return ScorerGrant{}, ErrTokenWrongMatch
	}

	grant := ScorerGrant{MatchID: sub, Side: domain.NoSide}
	grant.TokenID, _ = claims["jti"].(string)
	if exp, ok := claims["exp"].(float64); ok {
		grant.ExpiresAt = time.Unix(int64(exp), 0)
	}
	if sideClaim, _ := claims["side"].(string); sideClaim != "" {
		side, err := domain.ParseSide(sideClaim)
		if err != nil {
			return ScorerGrant{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
		}
		grant.Side = side
	}
	return grant, nil
}
