package shopify

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mailsmithapp/mailsmith/internal/errs"
)

// StateTTL bounds how long an install attempt may take.
const StateTTL = 10 * time.Minute

// State is the payload bound into the OAuth state parameter.
type State struct {
	UserID string
	Shop   string
	Nonce  string
}

type stateClaims struct {
	UserID string `json:"userId"`
	Shop   string `json:"shop"`
	Nonce  string `json:"nonce"`
	jwt.RegisteredClaims
}

// StateSigner issues and verifies HS256 state tokens.
type StateSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewStateSigner signs with secret. A blank secret is a configuration error.
func NewStateSigner(secret string) (*StateSigner, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("%w: state signing secret is required", errs.ErrConfiguration)
	}
	return &StateSigner{secret: []byte(secret), ttl: StateTTL, now: time.Now}, nil
}

// WithClock returns a copy of the signer that reads time from now.
func (s *StateSigner) WithClock(now func() time.Time) *StateSigner {
	clone := *s
	clone.now = now
	return &clone
}

// Create signs a new state for userID and shop with a random nonce.
func (s *StateSigner) Create(userID, shop string) (string, error) {
	if s == nil || len(s.secret) == 0 {
		return "", fmt.Errorf("%w: state signing secret is required", errs.ErrConfiguration)
	}

	nonce, err := randomNonce()
	if err != nil {
		return "", err
	}

	issued := s.now()
	claims := stateClaims{
		UserID: userID,
		Shop:   shop,
		Nonce:  nonce,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign state: %w", err)
	}
	return signed, nil
}

// Decode verifies token and returns its payload. Any failure, including a
// bad signature, a foreign algorithm or expiry, yields (nil, false).
func (s *StateSigner) Decode(token string) (*State, bool) {
	if s == nil || len(s.secret) == 0 || token == "" {
		return nil, false
	}

	claims := &stateClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, false
	}
	if claims.UserID == "" || claims.Shop == "" {
		return nil, false
	}

	return &State{UserID: claims.UserID, Shop: claims.Shop, Nonce: claims.Nonce}, true
}

func randomNonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state nonce: %w", err)
	}
	return hex.EncodeToString(b), nil
}
