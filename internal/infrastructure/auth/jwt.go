package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
)

// ErrNoToken request carries neither the token cookie nor a bearer header
var ErrNoToken = errors.New("no token in request")

// AppTokenClaims claims issued by the identity provider
type AppTokenClaims struct {
	UID   string `json:"uid"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`

	jwt.StandardClaims
}

// Valid implements jwt.Claims
func (tk *AppTokenClaims) Valid() error {
	if err := tk.StandardClaims.Valid(); err != nil {
		return err
	}
	if tk.UID == "" {
		return errors.New("token has no uid")
	}
	return nil
}

// TimeRemaining remaining time before the token get expired
func (tk *AppTokenClaims) TimeRemaining() time.Duration {
	if tk.ExpiresAt == 0 {
		return 0
	}
	exp := time.Unix(tk.ExpiresAt, 0)
	now := time.Now()

	if exp.Before(now) {
		return 0
	}
	return exp.Sub(now)
}

// JWTUtil .
type JWTUtil struct {
	secret    []byte
	tokenName string
	method    jwt.SigningMethod
}

// NewJWTUtil create a JWTUtil instance
func NewJWTUtil(method, secret, tokenName string) *JWTUtil {
	var signMethod jwt.SigningMethod
	switch method {
	case "HS384":
		signMethod = jwt.SigningMethodHS384
	case "HS512":
		signMethod = jwt.SigningMethodHS512
	default:
		signMethod = jwt.SigningMethodHS256
	}
	return &JWTUtil{
		method:    signMethod,
		secret:    []byte(secret),
		tokenName: tokenName,
	}
}

// Sign sign token
func (ju *JWTUtil) Sign(claims *AppTokenClaims) (string, error) {
	token := jwt.NewWithClaims(ju.method, claims)
	return token.SignedString(ju.secret)
}

// Issue sign a token for uid valid for ttl, used for local development
func (ju *JWTUtil) Issue(uid string, ttl time.Duration) (string, error) {
	now := time.Now()
	return ju.Sign(&AppTokenClaims{
		UID: uid,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
	})
}

// Validate validate token string with secret and return AppTokenClaims. Tokens signed with
// another algorithm than the configured one are rejected.
func (ju *JWTUtil) Validate(tokenStr string) (*AppTokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &AppTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != ju.method.Alg() {
			return nil, fmt.Errorf("unexpected signing method %s", token.Method.Alg())
		}
		return ju.secret, nil
	})
	if err != nil {
		return nil, err
	}
	return token.Claims.(*AppTokenClaims), nil
}

// SetContextToken set token in App context
func (ju *JWTUtil) SetContextToken(c echo.Context, token *AppTokenClaims) {
	c.Set(ju.tokenName, token)
}

// GetContextToken get token from App context
func (ju *JWTUtil) GetContextToken(c echo.Context) *AppTokenClaims {
	v, ok := c.Get(ju.tokenName).(*AppTokenClaims)
	if ok {
		return v
	}
	return nil
}

// ExtractToken get token string from the token cookie, or from an Authorization bearer header
func (ju *JWTUtil) ExtractToken(c echo.Context) (string, error) {
	if cookie, err := c.Cookie(ju.tokenName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:]), nil
	}
	return "", ErrNoToken
}
