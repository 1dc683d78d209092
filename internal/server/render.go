package server

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/partsline/partsline/internal/api"
	"github.com/partsline/partsline/internal/gateway"
	"github.com/partsline/partsline/internal/models"
	"github.com/partsline/partsline/internal/session"
)

var templateFuncs = template.FuncMap{
	"money": func(v float64) string {
		return fmt.Sprintf("$%.2f", v)
	},
	"year": func() int {
		return time.Now().Year()
	},
	"stars": func(n int) string {
		if n < 0 {
			n = 0
		}
		if n > 5 {
			n = 5
		}
		return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
	},
}

// sitePage is the data every storefront template gets
type sitePage struct {
	Title    string
	Settings models.Settings
	Data     any
	Flash    string
	Error    string
}

// adminPage is the data every admin template gets
type adminPage struct {
	Title    string
	Identity *session.Identity
	Nav      []navItem
	Data     any
	Flash    string
	Error    string
}

type navItem struct {
	Slug  string
	Title string
}

func (s *Server) renderSite(c *gin.Context, status int, name string, page sitePage) {
	if page.Settings.SiteName == "" {
		if snap, err := s.catalog.Snapshot(c.Request.Context()); err == nil {
			page.Settings = snap.Settings
		} else {
			page.Settings.SiteName = "Partsline"
		}
	}
	c.HTML(status, name, page)
}

func (s *Server) renderAdmin(c *gin.Context, status int, name string, page adminPage) {
	if token, ok := GetSession(c).Get(); ok {
		if id, err := session.Inspect(token); err == nil {
			page.Identity = id
		}
	}
	for _, e := range adminEntities {
		page.Nav = append(page.Nav, navItem{Slug: e.Slug(), Title: e.Title()})
	}
	c.HTML(status, name, page)
}

func (s *Server) renderError(c *gin.Context, status int, message string) {
	c.HTML(status, "error.html", sitePage{
		Title:    http.StatusText(status),
		Settings: models.Settings{SiteName: "Partsline"},
		Error:    message,
	})
}

// handleAdminError turns a failed backend call into a response. Unauthorized
// clears the stored token and bounces to the login page.
func (s *Server) handleAdminError(c *gin.Context, err error, action string) {
	if errors.Is(err, gateway.ErrUnauthorized) {
		s.logger.Info().Err(err).Str("path", c.Request.URL.Path).Msg("Backend rejected admin token")
		if clearErr := GetSession(c).Clear(); clearErr != nil {
			s.logger.Warn().Err(clearErr).Msg("Failed to clear admin token")
		}
		redirectToLogin(c, loginPath)
		return
	}

	status := http.StatusBadGateway
	message := fmt.Sprintf("Failed to %s", action)

	var se *api.StatusError
	var de *gateway.DecodeError
	switch {
	case errors.As(err, &se):
		// only error statuses are passed through
		if se.Status >= 400 && se.Status < 600 {
			status = se.Status
		}
		if se.Message != "" {
			message = fmt.Sprintf("%s: %s", message, se.Message)
		}
	case errors.As(err, &de):
		message = fmt.Sprintf("%s: the backend returned data in an unexpected shape", message)
	}

	s.logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg(message)

	if strings.HasPrefix(c.Request.URL.Path, adminPrefix+"/api/") {
		c.AbortWithStatusJSON(status, gin.H{"error": message})
		return
	}
	s.renderAdmin(c, status, "admin_error.html", adminPage{Title: "Error", Error: message})
	c.Abort()
}
