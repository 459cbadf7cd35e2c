package auth

import (
	"errors"

	"github.com/gin-gonic/gin"
)

var (
	ErrInvalidRequest     = errors.New("invalid request")
	ErrInvalidUserID      = errors.New("invalid user id")
	ErrInvalidName        = errors.New("invalid or missing username")
	ErrInvalidEmail       = errors.New("invalid or missing email")
	ErrEmailExists        = errors.New("email is already registered")
	ErrUsernameExists     = errors.New("username is already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrShortPass          = errors.New("password can't be less than 8 characters")
	ErrPasswordMismatch   = errors.New("password mismatch")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrUserFlagged        = errors.New("account has been flagged by an administrator")
	ErrUserDeleted        = errors.New("account has been deactivated")

	ErrRoleNotFound = errors.New("no such role")
	ErrRoleConflict = errors.New("role conflicts with a role already held")

	ErrInvalidToken = errors.New("invalid or malformed token")
	ErrTokenRevoked = errors.New("token has been revoked")
	ErrNotRefresh   = errors.New("not a refresh token")

	ErrUnexpected = errors.New("unexpected system error")
)

const claimsKey = "authClaims"

func GetCtxUser(c *gin.Context) *User {
	if u, ok := c.Get(gin.AuthUserKey); ok {
		if u, ok := u.(*User); ok {
			return u
		}
	}
	return nil
}

// GetCtxClaims returns the verified claim set for the request, which is
// empty (never nil) on soft-verified anonymous requests.
func GetCtxClaims(c *gin.Context) *Claims {
	if cl, ok := c.Get(claimsKey); ok {
		if cl, ok := cl.(*Claims); ok {
			return cl
		}
	}
	return &Claims{}
}
