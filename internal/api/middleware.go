package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"alcyxob/trainplan/internal/planner"
	"alcyxob/trainplan/internal/service"
	"alcyxob/trainplan/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Constants for context keys
const (
	ContextUserIDKey = "userID"
)

// jwtClaims defines the structure we expect in the JWT payload issued by the
// account service.
type jwtClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// AuthMiddleware creates a Gin middleware for JWT authentication.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header is missing")
			return
		}

		// Expecting "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}

		claims := &jwtClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(jwtSecret), nil
		})
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				abortWithError(c, http.StatusUnauthorized, "Token has expired")
			} else {
				abortWithError(c, http.StatusUnauthorized, fmt.Sprintf("Invalid token: %v", err))
			}
			return
		}

		if !token.Valid || claims.UserID == "" || claims.ExpiresAt == nil {
			abortWithError(c, http.StatusUnauthorized, "Invalid token or missing claims")
			return
		}
		if _, err := primitive.ObjectIDFromHex(claims.UserID); err != nil {
			abortWithError(c, http.StatusUnauthorized, "Invalid user ID format in token")
			return
		}

		// Store UserID as string (Hex representation)
		c.Set(ContextUserIDKey, claims.UserID)
		c.Next()
	}
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// abortWithServiceError maps service, planner and store errors to status codes.
func abortWithServiceError(c *gin.Context, err error) {
	code := statusForError(err)
	if code == http.StatusTooManyRequests {
		c.Header("Retry-After", "1")
	}
	if code == http.StatusInternalServerError {
		_ = c.Error(err)
		abortWithError(c, code, "Internal server error")
		return
	}
	abortWithError(c, code, err.Error())
}

// StatusClientClosedRequest reports a request abandoned by the client
// (nginx 499).
const StatusClientClosedRequest = 499

func statusForError(err error) int {
	switch {
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest
	case errors.Is(err, service.ErrProgramNotFound),
		errors.Is(err, service.ErrDayNotFound),
		errors.Is(err, service.ErrWorkoutNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, planner.ErrAlreadyGenerated),
		errors.Is(err, service.ErrNotGenerated),
		errors.Is(err, service.ErrWorkoutFinished):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidSetLog),
		errors.Is(err, service.ErrExerciseNotInDay),
		errors.Is(err, service.ErrInvalidWeek):
		return http.StatusBadRequest
	case store.IsRateLimited(err):
		return http.StatusTooManyRequests
	case errors.Is(err, store.ErrRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// getUserID reads the authenticated user from the context. It aborts the
// request and reports false when the id is missing.
func getUserID(c *gin.Context) (primitive.ObjectID, bool) {
	idRaw, exists := c.Get(ContextUserIDKey)
	idStr, ok := idRaw.(string)
	if !exists || !ok {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid user ID format in token.")
		return primitive.NilObjectID, false
	}
	return id, true
}

// getPathID parses an ObjectID path parameter, aborting with 400 when invalid.
func getPathID(c *gin.Context, param string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(param))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid %s format", param))
		return primitive.NilObjectID, false
	}
	return id, true
}
