package middleware

import (
	"net/http"

	"ecovendix/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AdminOnlyMiddleware checks the caller's admin flag against the database on
// each request. Anything short of a confirmed admin is sent to the login page.
func AdminOnlyMiddleware(users repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := CurrentIdentity(c)
		if identity.Anonymous() || !identity.IsAdmin {
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}
		user, err := users.FindByID(c.Request.Context(), identity.UserID) // Token claim alone is not trusted
		if err != nil || !user.IsAdmin {
			if err != nil {
				logrus.WithError(err).WithField("user_id", identity.UserID).Warn("Admin check failed")
			}
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}
