package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/abhisek/lyfeline/internal/logger"
	"github.com/abhisek/lyfeline/internal/store"
)

const ctxUserID = "user_id"

// Claims are the access token claims issued by the identity provider. The
// subject is the user id.
type Claims struct {
	Email        string       `json:"email"`
	UserMetadata UserMetadata `json:"user_metadata"`
	jwt.RegisteredClaims
}

// UserMetadata is profile data captured at sign-up.
type UserMetadata struct {
	Username string `json:"username"`
}

// RequestLogger logs one line per request, with severity by status class.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if id := c.GetString(ctxUserID); id != "" {
			fields = append(fields, "user_id", id)
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

// Auth verifies the bearer token and makes sure the user has a profile.
// The user id is stored in the gin context.
func Auth(secret []byte, profiles Profiles, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		claims, err := parseToken(raw, secret)
		if err != nil {
			log.Debug("token rejected", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		_, err = profiles.EnsureProfile(c.Request.Context(), store.NewProfile{
			ID:       claims.Subject,
			Email:    claims.Email,
			Username: usernameFor(claims),
		})
		if err != nil {
			log.Error("ensure profile failed", "user_id", claims.Subject, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profile"})
			return
		}

		c.Set(ctxUserID, claims.Subject)
		c.Next()
	}
}

func parseToken(raw string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

func bearerToken(header string) string {
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// usernameFor picks the sign-up username, then the email local part, then
// a prefix of the user id.
func usernameFor(claims *Claims) string {
	if u := strings.TrimSpace(claims.UserMetadata.Username); u != "" {
		return u
	}
	if local, _, ok := strings.Cut(claims.Email, "@"); ok && local != "" {
		return local
	}
	id := claims.Subject
	if len(id) > 8 {
		id = id[:8]
	}
	return "user-" + id
}

func userID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}
