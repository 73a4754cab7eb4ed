// Package param reads identifiers from request paths and headers.
package param

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/motohub/workshop-service/internal/apperror"
)

// ID returns the UUID path parameter name. A malformed value cannot match a
// row, so it is reported as not found with notFoundCode.
func ID(c *gin.Context, name, notFoundCode string) (string, error) {
	id := c.Param(name)
	if !Valid(id) {
		return "", apperror.NotFound(notFoundCode, "resource not found")
	}
	return id, nil
}

// Valid reports whether s is a canonical UUID string.
func Valid(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
