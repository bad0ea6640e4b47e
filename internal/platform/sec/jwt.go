// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec verifies the bearer tokens presented to the admin API.
//
// # Architecture
//
// Tokens are issued by the library's account service; this module only holds
// the RS256 public key and checks signature, issuer and expiry. The verifier is
// injected into [middleware.Authenticate] through its TokenVerifier interface.
package sec

import (
	"crypto/rsa"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims represents the payload embedded inside a JWT Access Token.
//
// The role travels inside the token so the middleware can authorise admin
// routes without a database round-trip.
type AuthClaims struct {
	jwt.RegisteredClaims

	// Custom application claims are abbreviated to keep the JWT payload small.
	UserID   string `json:"uid"`
	Username string `json:"unm"`
	Role     string `json:"rol"`
}

// TokenVerifier checks RS256 access tokens against a public key.
type TokenVerifier struct {
	publicKey *rsa.PublicKey
	issuer    string
}

// NewTokenVerifier reads a PEM encoded RSA public key from publicKeyPath.
func NewTokenVerifier(publicKeyPath, issuer string) (*TokenVerifier, error) {
	publicKeyData, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("auth: failed to read public key from %s: %w", publicKeyPath, err)
	}

	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyData)
	if err != nil {
		return nil, fmt.Errorf("auth: failed to parse public key: %w", err)
	}

	return NewTokenVerifierFromKey(publicKey, issuer), nil
}

// NewTokenVerifierFromKey builds a verifier around an already parsed key.
func NewTokenVerifierFromKey(publicKey *rsa.PublicKey, issuer string) *TokenVerifier {
	return &TokenVerifier{publicKey: publicKey, issuer: issuer}
}

// VerifyToken checks the signature and validity of a JWT string.
func (verifier *TokenVerifier) VerifyToken(tokenString string) (*AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
		}
		return verifier.publicKey, nil
	}, jwt.WithIssuer(verifier.issuer), jwt.WithExpirationRequired())

	if err != nil {
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("auth: invalid token claims")
	}

	return claims, nil
}
