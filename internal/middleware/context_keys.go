package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// tenantIDKey is the key used to store the tenant (company) ID in the request
// context. The auth layer in front of this service resolves the session to a
// tenant and forwards it in the X-Tenant-ID header.
const tenantIDKey = contextKey("tenantID")

const tenantHeader = "X-Tenant-ID"

// TenantMiddleware extracts the tenant ID header and aborts requests without one.
func TenantMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetHeader(tenantHeader)
		if tenantID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing " + tenantHeader + " header"})
			return
		}
		c.Set(string(tenantIDKey), tenantID)
		c.Next()
	}
}

// GetTenantIDFromContext retrieves the tenant ID from the Gin context.
// It returns the tenant ID and a boolean indicating if it was found.
func GetTenantIDFromContext(c *gin.Context) (string, bool) {
	tenantVal, exists := c.Get(string(tenantIDKey))
	if !exists {
		return "", false
	}
	tenantID, ok := tenantVal.(string)
	if !ok {
		return "", false
	}
	return tenantID, true
}
