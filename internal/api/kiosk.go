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

// PurchaseForm is the purchase form body
type PurchaseForm struct {
	ProductID uint `form:"product_id" binding:"required"` // Product to redeem
}

// Messages shown on the dashboard for rejected purchases
var purchaseMessages = map[string]string{
	domain.ReasonNotFound:           "Product not found",
	domain.ReasonOutOfStock:         "Product out of stock",
	domain.ReasonInsufficientPoints: "Insufficient points",
}

func dashboardWithError(message string) string {
	return "/dashboard?" + url.Values{"error": {message}}.Encode()
}

// DashboardHandler renders the student dashboard
func DashboardHandler(accounts service.AccountService, cookies *CookieHelper) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := middleware.CurrentIdentity(c)
		if identity.IsAdmin {
			c.Redirect(http.StatusSeeOther, "/admin")
			return
		}

		view, err := accounts.Dashboard(c.Request.Context(), identity)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Account was deleted while the session was live
				cookies.ClearSession(c)
				c.Redirect(http.StatusSeeOther, "/login")
				return
			}
			renderError(c, err)
			return
		}

		c.HTML(http.StatusOK, "dashboard.html", gin.H{
			"user":        view.User,
			"products":    view.Products,
			"history":     view.History,
			"rank":        view.Rank,
			"leaderboard": view.Leaderboard,
			"error":       c.Query("error"),
		})
	}
}

// PurchaseHandler redeems one product for the current student
func PurchaseHandler(purchases service.PurchaseService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form PurchaseForm
		if err := c.ShouldBind(&form); err != nil {
			c.Redirect(http.StatusSeeOther, dashboardWithError(purchaseMessages[domain.ReasonNotFound]))
			return
		}

		identity := middleware.CurrentIdentity(c)
		if _, err := purchases.Purchase(c.Request.Context(), identity.UserID, form.ProductID); err != nil {
			if msg, ok := purchaseMessages[domain.RejectionReason(err)]; ok {
				c.Redirect(http.StatusSeeOther, dashboardWithError(msg))
				return
			}
			renderError(c, err)
			return
		}
		c.Redirect(http.StatusSeeOther, "/dashboard")
	}
}
