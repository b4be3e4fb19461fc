// Package api holds the gin handlers, HTML templates and router for the kiosk.
package api

import (
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"ecovendix/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var templateFuncs = template.FuncMap{
	"signed": func(n int) string { // Ledger deltas render as +25 / -35
		if n > 0 {
			return "+" + strconv.Itoa(n)
		}
		return strconv.Itoa(n)
	},
	"when": func(t time.Time) string {
		return t.UTC().Format("2006-01-02 15:04")
	},
	"inc": func(i int) int { return i + 1 },
}

// LoadTemplates parses the embedded page templates.
func LoadTemplates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
}

// StaticFiles exposes the embedded stylesheet and icons.
func StaticFiles() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err) // embed path is fixed at compile time
	}
	return http.FS(sub)
}

// renderError writes the error page. Store outages are 503, anything else 500.
func renderError(c *gin.Context, err error) {
	_ = c.Error(err)
	status := http.StatusInternalServerError
	message := "Something went wrong. Please try again."
	if errors.Is(err, domain.ErrStoreUnavailable) {
		status = http.StatusServiceUnavailable
		message = "The kiosk is temporarily unavailable. Please try again shortly."
	}
	logrus.WithError(err).WithFields(logrus.Fields{
		"path":   c.Request.URL.Path,
		"status": status,
	}).Error("Request failed")
	c.HTML(status, "error.html", gin.H{"message": message, "status": status})
}
