package api

import (
	"errors"
	"net/http"
	"net/url"

	"ecovendix/internal/domain"
	"ecovendix/internal/middleware"
	"ecovendix/internal/service"

	"github.com/gin-gonic/gin"
)

// UserForm targets one user
type UserForm struct {
	UserID uint `form:"user_id" binding:"required"` // Target user
}

// PointsForm sets or credits a user's balance
type PointsForm struct {
	UserID uint   `form:"user_id" binding:"required"` // Target user
	Points *int   `form:"points" binding:"required"`  // New balance or credit amount
	Label  string `form:"label"`                      // Ledger label for credits
}

// StockForm sets a product's stock
type StockForm struct {
	ProductID     uint `form:"product_id" binding:"required"`     // Target product
	StockQuantity *int `form:"stock_quantity" binding:"required"` // New stock level
}

func adminWithError(message string) string {
	return "/admin?" + url.Values{"error": {message}}.Encode()
}

// finishAdminAction redirects back to the panel, carrying a message for
// rejected actions. Store failures render the error page.
func finishAdminAction(c *gin.Context, err error) {
	var verr *domain.ValidationError
	switch {
	case err == nil:
		c.Redirect(http.StatusSeeOther, "/admin")
	case errors.As(err, &verr):
		c.Redirect(http.StatusSeeOther, adminWithError(verr.Message))
	case errors.Is(err, domain.ErrNotFound):
		c.Redirect(http.StatusSeeOther, adminWithError("Record not found"))
	case errors.Is(err, domain.ErrForbidden):
		c.Redirect(http.StatusSeeOther, adminWithError("Admin accounts cannot be changed"))
	default:
		renderError(c, err)
	}
}

// AdminPanelHandler renders the admin panel
func AdminPanelHandler(admin service.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		overview, err := admin.Overview(c.Request.Context(), middleware.CurrentIdentity(c))
		if err != nil {
			renderError(c, err)
			return
		}
		c.HTML(http.StatusOK, "admin.html", gin.H{
			"users":      overview.Users,
			"totalUsers": overview.TotalUsers,
			"products":   overview.Products,
			"error":      c.Query("error"),
		})
	}
}

// DeleteUserHandler removes a student and their ledger
func DeleteUserHandler(admin service.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form UserForm
		if err := c.ShouldBind(&form); err != nil {
			finishAdminAction(c, domain.NewValidationError("user_id", "Invalid request"))
			return
		}
		finishAdminAction(c, admin.DeleteUser(c.Request.Context(), middleware.CurrentIdentity(c), form.UserID))
	}
}

// UpdatePointsHandler overwrites a student's balance
func UpdatePointsHandler(admin service.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form PointsForm
		if err := c.ShouldBind(&form); err != nil {
			finishAdminAction(c, domain.NewValidationError("points", "Invalid request"))
			return
		}
		_, err := admin.SetUserPoints(c.Request.Context(), middleware.CurrentIdentity(c), form.UserID, *form.Points)
		finishAdminAction(c, err)
	}
}

// CreditPointsHandler credits recycled points to a student
func CreditPointsHandler(admin service.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form PointsForm
		if err := c.ShouldBind(&form); err != nil {
			finishAdminAction(c, domain.NewValidationError("points", "Invalid request"))
			return
		}
		_, err := admin.CreditPoints(c.Request.Context(), middleware.CurrentIdentity(c), form.UserID, *form.Points, form.Label)
		finishAdminAction(c, err)
	}
}

// DeleteAllUsersHandler removes every student account
func DeleteAllUsersHandler(admin service.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, err := admin.DeleteAllUsers(c.Request.Context(), middleware.CurrentIdentity(c))
		finishAdminAction(c, err)
	}
}

// UpdateStockHandler overwrites a product's stock
func UpdateStockHandler(admin service.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form StockForm
		if err := c.ShouldBind(&form); err != nil {
			finishAdminAction(c, domain.NewValidationError("stock_quantity", "Invalid request"))
			return
		}
		_, err := admin.SetProductStock(c.Request.Context(), middleware.CurrentIdentity(c), form.ProductID, *form.StockQuantity)
		finishAdminAction(c, err)
	}
}
