package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/motohub/workshop-service/internal/api/param"
	"github.com/motohub/workshop-service/internal/api/response"
	"github.com/motohub/workshop-service/internal/apperror"
	"github.com/motohub/workshop-service/internal/auth"
)

// DealerHeader lets a super admin act on a specific dealer.
const DealerHeader = "X-Dealer-ID"

// Authenticate verifies the access token from the session cookie or the
// Authorization header and stores the caller in the request context.
func Authenticate(tokens *auth.TokenManager, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, _ := c.Cookie(cookieName)
		if tokenString == "" {
			header := c.GetHeader("Authorization")
			if header != "" {
				tokenString = strings.TrimPrefix(header, "Bearer ")
				if tokenString == header {
					response.Error(c, apperror.Unauthenticated("invalid token format"))
					return
				}
			}
		}
		if tokenString == "" {
			response.Error(c, apperror.Unauthenticated("authentication required"))
			return
		}

		user, err := tokens.Parse(tokenString)
		if err != nil {
			response.Error(c, apperror.Unauthenticated("invalid or expired token"))
			return
		}

		if user.Role == auth.RoleSuperAdmin {
			if dealerID := c.GetHeader(DealerHeader); dealerID != "" {
				if !param.Valid(dealerID) {
					response.Error(c, apperror.Validation(apperror.CodeInvalidRequest, DealerHeader+" must be a UUID"))
					return
				}
				user.DealerID = dealerID
			}
		}

		c.Set("user_id", user.UserID)
		c.Set("user_role", user.Role)
		c.Request = c.Request.WithContext(auth.WithUser(c.Request.Context(), user))
		c.Next()
	}
}

// Authorize rejects callers whose role is not in allowedRoles. It must run
// after Authenticate.
func Authorize(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := auth.UserFrom(c.Request.Context())
		if !ok {
			response.Error(c, apperror.Unauthenticated("authentication required"))
			return
		}
		if !auth.HasRole(user.Role, allowedRoles...) {
			response.Error(c, apperror.Forbidden("you do not have permission to access this resource"))
			return
		}
		c.Next()
	}
}
