package api

import (
	"errors"
	"net/http"

	"ecovendix/internal/domain"
	"ecovendix/internal/middleware"
	"ecovendix/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// LoginForm is the login form body
type LoginForm struct {
	StudentID string `form:"student_id"` // Student identifier
	Password  string `form:"password"`   // Numeric credential
}

// SignupForm is the signup form body
type SignupForm struct {
	Name      string `form:"name"`       // Display name
	StudentID string `form:"student_id"` // Student identifier
	Password  string `form:"password"`   // Numeric credential
}

// AuthPages renders the login/signup page and its errors.
type AuthPages struct {
	CredentialLength int
}

func (p AuthPages) render(c *gin.Context, mode, message string) {
	c.HTML(http.StatusOK, "login.html", gin.H{
		"mode":             mode,
		"error":            message,
		"credentialLength": p.CredentialLength,
	})
}

// RootHandler sends callers to the dashboard or the login page
func RootHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if middleware.CurrentIdentity(c).Anonymous() {
			c.Redirect(http.StatusSeeOther, "/login")
			return
		}
		c.Redirect(http.StatusSeeOther, "/dashboard")
	}
}

// FormPageHandler renders the login or signup form
func FormPageHandler(pages AuthPages, mode string) gin.HandlerFunc {
	return func(c *gin.Context) {
		pages.render(c, mode, "")
	}
}

// LoginHandler authenticates a student and sets the session cookie
func LoginHandler(sessions service.SessionService, cookies *CookieHelper, pages AuthPages) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form LoginForm
		_ = c.ShouldBind(&form) // Empty fields fail validation below

		token, identity, err := sessions.Authenticate(c.Request.Context(), form.StudentID, form.Password)
		if err != nil {
			var verr *domain.ValidationError
			switch {
			case errors.As(err, &verr):
				pages.render(c, "login", verr.Message)
			case errors.Is(err, domain.ErrAuthFailure):
				pages.render(c, "login", service.MsgInvalidLogin)
			default:
				renderError(c, err)
			}
			return
		}

		cookies.SetSession(c, token)
		if identity.IsAdmin {
			c.Redirect(http.StatusSeeOther, "/admin")
			return
		}
		c.Redirect(http.StatusSeeOther, "/dashboard")
	}
}

// SignupHandler registers a student and logs them in
func SignupHandler(accounts service.AccountService, sessions service.SessionService, cookies *CookieHelper, pages AuthPages) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form SignupForm
		_ = c.ShouldBind(&form)

		user, err := accounts.Signup(c.Request.Context(), form.Name, form.StudentID, form.Password)
		if err != nil {
			var verr *domain.ValidationError
			switch {
			case errors.As(err, &verr):
				pages.render(c, "signup", verr.Message)
			case errors.Is(err, domain.ErrDuplicateIdentifier):
				pages.render(c, "signup", service.MsgDuplicateID)
			default:
				renderError(c, err)
			}
			return
		}

		token, err := sessions.Issue(c.Request.Context(), user)
		if err != nil {
			// Account exists, the student can still log in once the session store is back
			logrus.WithError(err).WithField("user_id", user.ID).Error("Session issue after signup failed")
			c.Redirect(http.StatusSeeOther, "/login")
			return
		}
		cookies.SetSession(c, token)
		c.Redirect(http.StatusSeeOther, "/dashboard")
	}
}

// LogoutHandler invalidates the session and clears the cookie
func LogoutHandler(sessions service.SessionService, cookies *CookieHelper) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := cookies.Token(c); token != "" {
			sessions.Invalidate(c.Request.Context(), token)
		}
		cookies.ClearSession(c)
		c.Redirect(http.StatusSeeOther, "/login")
	}
}
