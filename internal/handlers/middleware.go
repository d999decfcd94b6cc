package handlers

import (
	"net/http"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/eduport/examportal-service/internal/config"
	"github.com/eduport/examportal-service/internal/models"
	"github.com/eduport/examportal-service/internal/repositories"
	"github.com/eduport/examportal-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// Authenticator validates bearer tokens against Casdoor and mirrors the
// identity into the local users table so services can resolve roles without
// another round-trip to the identity provider.
type Authenticator struct {
	client *casdoorsdk.Client
	users  repositories.UserRepository
	logger utils.Logger
}

func NewAuthenticator(cfg config.CasdoorConfig, users repositories.UserRepository, logger utils.Logger) *Authenticator {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Certificate,
		cfg.OrganizationName,
		cfg.ApplicationName,
	)
	return &Authenticator{
		client: client,
		users:  users,
		logger: logger,
	}
}

// Middleware parses the Authorization header and stores user_id and
// user_role in the request context.
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Missing or malformed Authorization header",
			})
			return
		}

		claims, err := a.client.ParseJwtToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Invalid or expired token",
			})
			return
		}

		role := models.RoleStudent
		if claims.User.IsAdmin {
			role = models.RoleAdmin
		}

		user := &models.User{
			ID:       claims.User.Id,
			FullName: claims.User.DisplayName,
			Email:    strings.ToLower(claims.User.Email),
			Role:     role,
			IsActive: !claims.User.IsForbidden,
		}
		if err := a.users.Upsert(c.Request.Context(), user); err != nil {
			a.logger.LogError(err, "Failed to sync authenticated user", "user_id", user.ID)
			c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
				Message: "Internal server error",
			})
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user_role", string(role))
		c.Next()
	}
}

// RequireAdmin rejects callers whose token does not carry the admin role.
// Services re-check against the local users table; this gate just keeps
// student traffic off the admin routes.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("user_role")
		if !exists || role != string(models.RoleAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Message: "Admin role required",
			})
			return
		}
		c.Next()
	}
}
