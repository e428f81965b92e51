package httpkit

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GetUserID extracts the authenticated user ID from the gin context.
// Returns false when the request is unauthenticated.
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	value, ok := c.Get(ContextUserIDKey)
	if !ok {
		return uuid.Nil, false
	}
	userID, ok := value.(uuid.UUID)
	return userID, ok
}

// HasRole reports whether the authenticated user carries the given role.
func HasRole(c *gin.Context, role string) bool {
	value, ok := c.Get(ContextRolesKey)
	if !ok {
		return false
	}
	roles, ok := value.([]string)
	if !ok {
		return false
	}
	for _, item := range roles {
		if item == role {
			return true
		}
	}
	return false
}
