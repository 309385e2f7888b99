// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides the identity primitives shared by every studio package:
// staff roles and their rank, the permission catalog, password hashing, and
// RS256 access tokens.
//
// It sits below the workflow packages so middleware and domain services can
// both depend on it without import cycles.
package sec

import (
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ClockSkew is the leeway applied to exp, nbf and iat checks.
const ClockSkew = 30 * time.Second

// ErrTokenExpired is returned by [TokenService.VerifyToken] for a well-formed
// token past its expiry.
var ErrTokenExpired = errors.New("sec: token expired")

// AuthClaims is the access-token payload.
//
// The role travels inside the token so that [middleware.Authenticate] can
// rebuild the caller without a database round-trip. Per-user permission
// overrides are NOT embedded; they are resolved live so that an admin change
// takes effect before the token expires.
type AuthClaims struct {
	jwt.RegisteredClaims

	UserID   string `json:"uid"`
	Username string `json:"unm"`
	Role     string `json:"rol"`
}

// StaffRole returns the role claim as a [UserRole].
func (claims *AuthClaims) StaffRole() UserRole {
	return UserRole(claims.Role)
}

// TokenService signs and verifies RS256 access tokens. Tokens carry a "kid"
// header derived from the public key, so a rotated key pair rejects tokens
// signed by its predecessor with a clear reason.
type TokenService struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	issuer     string
	keyID      string
	parser     *jwt.Parser
}

// NewTokenService reads a PEM key pair from disk.
func NewTokenService(privateKeyPath, publicKeyPath, issuer string) (*TokenService, error) {
	privateKeyData, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("sec: read private key %s: %w", privateKeyPath, err)
	}
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyData)
	if err != nil {
		return nil, fmt.Errorf("sec: parse private key: %w", err)
	}

	publicKeyData, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("sec: read public key %s: %w", publicKeyPath, err)
	}
	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyData)
	if err != nil {
		return nil, fmt.Errorf("sec: parse public key: %w", err)
	}

	if !privateKey.PublicKey.Equal(publicKey) {
		return nil, errors.New("sec: public key does not match the private key")
	}

	return NewTokenServiceFromKey(privateKey, publicKey, issuer), nil
}

// NewTokenServiceFromKey builds a [TokenService] from already parsed keys.
func NewTokenServiceFromKey(privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey, issuer string) *TokenService {
	return &TokenService{
		privateKey: privateKey,
		publicKey:  publicKey,
		issuer:     issuer,
		keyID:      keyID(publicKey),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
			jwt.WithIssuer(issuer),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
			jwt.WithLeeway(ClockSkew),
		),
	}
}

// KeyID is the "kid" stamped on issued tokens.
func (service *TokenService) KeyID() string {
	return service.keyID
}

// GenerateAccessToken signs a token for the user that expires after timeToLive.
func (service *TokenService) GenerateAccessToken(userID, username, role string, timeToLive time.Duration) (string, error) {
	now := time.Now()
	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(timeToLive)),
		},
		UserID:   userID,
		Username: username,
		Role:     role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = service.keyID

	signed, err := token.SignedString(service.privateKey)
	if err != nil {
		return "", fmt.Errorf("sec: sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken checks signature, issuer, expiry and key ID, and returns the
// claims of a valid token.
func (service *TokenService) VerifyToken(tokenString string) (*AuthClaims, error) {
	claims := &AuthClaims{}
	_, err := service.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if kid, _ := token.Header["kid"].(string); kid != service.keyID {
			return nil, fmt.Errorf("sec: unknown signing key %q", kid)
		}
		return service.publicKey, nil
	})
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrTokenExpired
	}
	if err != nil {
		return nil, fmt.Errorf("sec: invalid token: %w", err)
	}

	if claims.UserID == "" || claims.Subject != claims.UserID {
		return nil, errors.New("sec: token subject does not match its user")
	}
	return claims, nil
}

func keyID(publicKey *rsa.PublicKey) string {
	der, err := x509.MarshalPKIXPublicKey(publicKey)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(der)
	return hex.EncodeToString(sum[:8])
}
