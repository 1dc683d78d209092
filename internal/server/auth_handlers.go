package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/partsline/partsline/internal/api"
	"github.com/partsline/partsline/internal/models"
	"github.com/partsline/partsline/internal/session"
)

type loginView struct {
	Email string
	Next  string
}

func (s *Server) loginPage(c *gin.Context) {
	if session.StateOf(GetSession(c)) == session.Authenticated {
		c.Redirect(http.StatusSeeOther, safeNext(c.Query("next")))
		return
	}

	c.HTML(http.StatusOK, "admin_login.html", adminPage{
		Title: "Sign in",
		Data:  loginView{Next: c.Query("next")},
	})
}

func (s *Server) login(c *gin.Context) {
	var req models.LoginRequest
	next := c.PostForm("next")

	if err := c.ShouldBind(&req); err != nil {
		c.HTML(http.StatusBadRequest, "admin_login.html", adminPage{
			Title: "Sign in",
			Error: "Email and password are required",
			Data:  loginView{Email: req.Email, Next: next},
		})
		return
	}

	// login itself never carries a token
	client := api.New(s.gw.WithStore(session.None{}))

	resp, err := client.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		status := http.StatusBadGateway
		message := "Login is unavailable right now, please try again"
		if errors.Is(err, api.ErrInvalidCredentials) {
			status = http.StatusUnauthorized
			message = "Invalid email or password"
		} else {
			s.logger.Error().Err(err).Msg("Login request failed")
		}
		c.HTML(status, "admin_login.html", adminPage{
			Title: "Sign in",
			Error: message,
			Data:  loginView{Email: req.Email, Next: next},
		})
		return
	}

	if err := GetSession(c).Set(resp.Token); err != nil {
		s.logger.Error().Err(err).Msg("Failed to store admin token")
		s.renderError(c, http.StatusInternalServerError, "Failed to start session")
		return
	}

	s.logger.Info().Str("email", resp.User.Email).Str("role", string(resp.User.Role)).Msg("Admin logged in")
	c.Redirect(http.StatusSeeOther, safeNext(next))
}

func (s *Server) logout(c *gin.Context) {
	if err := GetSession(c).Clear(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to clear admin token")
	}
	c.Redirect(http.StatusSeeOther, loginPath)
}
