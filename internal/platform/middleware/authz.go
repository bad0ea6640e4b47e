// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"net/http"
	"strings"

	"github.com/RolldeoDev/Helixio-sub007/internal/platform/apperr"
	"github.com/RolldeoDev/Helixio-sub007/internal/platform/ctxutil"
	"github.com/RolldeoDev/Helixio-sub007/internal/platform/respond"
	"github.com/RolldeoDev/Helixio-sub007/internal/platform/sec"
)

// # Authentication

// TokenVerifier is the part of [sec.TokenVerifier] the chain depends on.
type TokenVerifier interface {
	VerifyToken(tokenStr string) (*sec.AuthClaims, error)
}

// Authenticate verifies an optional bearer token and stores its claims.
//
// # Flow
//  1. No Authorization header: the request continues anonymously.
//  2. Anything other than "Bearer <token>": 401.
//  3. A token the verifier rejects: 401.
//  4. Otherwise the claims are attached with [ctxutil.WithAuthUser].
//
// Catalogue routes stay readable anonymously; admin routes add [RequireRole].
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			header := request.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(writer, request)
				return
			}

			scheme, token, found := strings.Cut(header, " ")
			if !found || !strings.EqualFold(scheme, "bearer") || token == "" || strings.Contains(token, " ") {
				respond.Error(writer, request, apperr.Unauthorized("Invalid authorization format"))
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				respond.Error(writer, request, apperr.Unauthorized("Invalid or expired token"))
				return
			}

			next.ServeHTTP(writer, request.WithContext(ctxutil.WithAuthUser(request.Context(), claims)))
		})
	}
}

// # Authorization

// RequireAuth rejects anonymous requests with 401. Mount after [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetAuthUser(request.Context()) == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireRole rejects anonymous requests with 401 and callers below role with
// 403. Mount after [Authenticate]; it implies [RequireAuth].
func RequireRole(role sec.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			claims := ctxutil.GetAuthUser(request.Context())
			if claims == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			if !sec.UserRole(claims.Role).AtLeast(role) {
				respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
