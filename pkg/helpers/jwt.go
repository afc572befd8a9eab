package helpers

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the signed session payload: {id, email, nome, exp}, exp in unix millis.
type SessionClaims struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"nome"`
	Exp   int64  `json:"exp"`
}

// ExpiresAt returns the absolute expiry.
func (c SessionClaims) ExpiresAt() time.Time { return time.UnixMilli(c.Exp) }

// jwt.Claims; exp is kept in milliseconds on the wire so the payload stays
// byte-compatible with cookies issued before signing was introduced.
func (c SessionClaims) GetExpirationTime() (*jwt.NumericDate, error) {
	if c.Exp == 0 {
		return nil, nil
	}
	return &jwt.NumericDate{Time: time.UnixMilli(c.Exp)}, nil
}
func (c SessionClaims) GetIssuedAt() (*jwt.NumericDate, error)  { return nil, nil }
func (c SessionClaims) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }
func (c SessionClaims) GetIssuer() (string, error)              { return "", nil }
func (c SessionClaims) GetSubject() (string, error)             { return "", nil }
func (c SessionClaims) GetAudience() (jwt.ClaimStrings, error)  { return nil, nil }

// JWTManager signs and verifies session tokens with HS256.
type JWTManager struct {
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

func NewJWTManager(secret string, ttl time.Duration) *JWTManager {
	return &JWTManager{Secret: []byte(secret), TTL: ttl, Now: time.Now}
}

// Generate signs a token for the identity that expires TTL from now.
func (m *JWTManager) Generate(id int64, email, name string) (string, SessionClaims, error) {
	claims := SessionClaims{
		ID:    id,
		Email: email,
		Name:  name,
		Exp:   m.Now().Add(m.TTL).UnixMilli(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(m.Secret)
	return s, claims, err
}

// Parse verifies signature and expiry. Expired tokens yield jwt.ErrTokenExpired.
func (m *JWTManager) Parse(tokenStr string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.Secret, nil
	}, jwt.WithTimeFunc(m.Now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !tkn.Valid || claims.ID <= 0 {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
