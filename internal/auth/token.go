package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/autodoc/autodoc/internal/model"
)

const tokenIssuer = "autodoc"

var (
	// ErrInvalidToken indicates a malformed, badly signed or expired bearer token.
	ErrInvalidToken = errors.New("invalid token")
	// ErrWeakSecret indicates the signing secret is too short.
	ErrWeakSecret = errors.New("jwt secret must be at least 32 bytes")
)

// MinSecretLength is the minimum HMAC secret size accepted by NewIssuer.
const MinSecretLength = 32

// Claims are the JWT claims carried by a bearer token.
type Claims struct {
	Email string     `json:"email"`
	Name  string     `json:"name,omitempty"`
	Role  model.Role `json:"role"`
	jwt.RegisteredClaims
}

// IssuedToken is a freshly signed bearer token.
type IssuedToken struct {
	Token     string
	TokenID   string
	ExpiresAt time.Time
}

// Issuer signs and verifies HS256 bearer tokens.
type Issuer struct {
	secret []byte
	now    func() time.Time
}

// NewIssuer creates an Issuer with the given HMAC secret.
func NewIssuer(secret string) (*Issuer, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	return &Issuer{secret: []byte(secret), now: time.Now}, nil
}

// Issue signs a token for user valid for ttl.
func (i *Issuer) Issue(user *model.User, ttl time.Duration) (*IssuedToken, error) {
	now := i.now()
	expires := now.Add(ttl)
	jti := uuid.NewString()

	claims := Claims{
		Email: user.Email,
		Name:  user.FullName,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   user.ID,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &IssuedToken{Token: signed, TokenID: jti, ExpiresAt: expires}, nil
}

// Parse verifies a token and returns its claims.
func (i *Issuer) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ExtractBearer returns the token of an "Authorization: Bearer <token>" header.
func ExtractBearer(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
