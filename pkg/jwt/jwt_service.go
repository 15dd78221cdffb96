package jwt

import (
	"errors"
	"fmt"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"reciperepo/domain"
	"sync"
	"time"
)

type (
	// JWTService verifies tokens issued by the identity provider. GenerateToken signs tokens with
	// the same shape for local development and tests.
	JWTService interface {
		GenerateToken(identity domain.Identity, ttl time.Duration) (string, error)
		ValidateToken(token string) (domain.Identity, error)
		Revoke(token string) error
	}

	identityClaim struct {
		Email        string                  `json:"email"`
		UserMetadata domain.IdentityMetadata `json:"user_metadata"`
		jwt.RegisteredClaims
	}

	jwtService struct {
		secretKey string
		issuer    string
		now       func() time.Time

		mu      sync.Mutex
		revoked map[string]time.Time
	}
)

func NewJWTService(secretKey, issuer string) JWTService {
	return &jwtService{
		secretKey: secretKey,
		issuer:    issuer,
		now:       time.Now,
		revoked:   make(map[string]time.Time),
	}
}

func (j *jwtService) GenerateToken(identity domain.Identity, ttl time.Duration) (string, error) {
	now := j.now()
	claims := identityClaim{
		Email:        identity.Email,
		UserMetadata: identity.Metadata,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   identity.ID,
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secretKey))
}

func (j *jwtService) parseToken(t_ *jwt.Token) (any, error) {
	if _, ok := t_.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t_.Header["alg"])
	}
	return []byte(j.secretKey), nil
}

func (j *jwtService) parse(token string) (*identityClaim, error) {
	claims := &identityClaim{}
	t_Token, err := jwt.ParseWithClaims(token, claims, j.parseToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}
	if !t_Token.Valid {
		return nil, domain.ErrTokenInvalid
	}
	if j.issuer != "" && !claims.VerifyIssuer(j.issuer, true) {
		return nil, domain.ErrTokenInvalid
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, domain.ErrTokenInvalid
	}
	return claims, nil
}

func (j *jwtService) ValidateToken(token string) (domain.Identity, error) {
	claims, err := j.parse(token)
	if err != nil {
		return domain.Identity{}, err
	}

	if claims.ID != "" && j.isRevoked(claims.ID) {
		return domain.Identity{}, domain.ErrTokenRevoked
	}

	return domain.Identity{
		ID:       claims.Subject,
		Email:    claims.Email,
		Metadata: claims.UserMetadata,
	}, nil
}

// Revoke rejects the token until it expires. Tokens without a jti cannot be revoked.
func (j *jwtService) Revoke(token string) error {
	claims, err := j.parse(token)
	if err != nil {
		return err
	}
	if claims.ID == "" {
		return domain.ErrTokenInvalid
	}

	expiresAt := j.now().Add(24 * time.Hour)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	j.pruneLocked()
	j.revoked[claims.ID] = expiresAt
	return nil
}

func (j *jwtService) isRevoked(id string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	_, ok := j.revoked[id]
	return ok
}

func (j *jwtService) pruneLocked() {
	now := j.now()
	for id, expiresAt := range j.revoked {
		if now.After(expiresAt) {
			delete(j.revoked, id)
		}
	}
}
