package jwt

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ogurasousui/codex-daily-report/internal/core/auth"
)

var (
	ErrTokenExpired = errors.New("jwt: token expired")
	ErrTokenInvalid = errors.New("jwt: token invalid")
)

// Issuer は HS256 で署名したアクセストークンを扱います。
type Issuer struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
}

// NewIssuer は Issuer を生成します。
func NewIssuer(signingKey, issuer string, ttl time.Duration) *Issuer {
	return &Issuer{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		ttl:        ttl,
	}
}

// Issue は subject (社員番号) を持つアクセストークンを発行します。
func (i *Issuer) Issue(subject string, now time.Time) (string, auth.Claims, error) {
	claims := auth.Claims{
		TokenID:   uuid.NewString(),
		Subject:   subject,
		IssuedAt:  now.Truncate(time.Second),
		ExpiresAt: now.Add(i.ttl).Truncate(time.Second),
	}

	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.RegisteredClaims{
		ID:        claims.TokenID,
		Subject:   claims.Subject,
		Issuer:    i.issuer,
		IssuedAt:  gojwt.NewNumericDate(claims.IssuedAt),
		ExpiresAt: gojwt.NewNumericDate(claims.ExpiresAt),
	})

	signed, err := token.SignedString(i.signingKey)
	if err != nil {
		return "", auth.Claims{}, fmt.Errorf("jwt: sign: %w", err)
	}
	return signed, claims, nil
}

// Verify は署名・発行者・有効期限を検証し、トークンの情報を返します。
func (i *Issuer) Verify(token string, now time.Time) (auth.Claims, error) {
	var registered gojwt.RegisteredClaims
	parsed, err := gojwt.ParseWithClaims(token, &registered, func(t *gojwt.Token) (any, error) {
		if _, ok := t.Method.(*gojwt.SigningMethodHMAC); !ok {
			return nil, gojwt.ErrTokenUnverifiable
		}
		return i.signingKey, nil
	},
		gojwt.WithIssuer(i.issuer),
		gojwt.WithExpirationRequired(),
		gojwt.WithTimeFunc(func() time.Time { return now }),
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, gojwt.ErrTokenExpired) {
			return auth.Claims{}, ErrTokenExpired
		}
		return auth.Claims{}, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if !parsed.Valid || registered.ID == "" || registered.Subject == "" {
		return auth.Claims{}, ErrTokenInvalid
	}

	claims := auth.Claims{
		TokenID: registered.ID,
		Subject: registered.Subject,
	}
	if registered.IssuedAt != nil {
		claims.IssuedAt = registered.IssuedAt.Time
	}
	if registered.ExpiresAt != nil {
		claims.ExpiresAt = registered.ExpiresAt.Time
	}
	return claims, nil
}
