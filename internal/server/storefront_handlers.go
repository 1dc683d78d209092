package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/partsline/partsline/internal/api"
	"github.com/partsline/partsline/internal/catalog"
	"github.com/partsline/partsline/internal/models"
)

const featuredLimit = 6

type homeView struct {
	Featured     []models.Product
	Categories   []string
	Portfolio    []models.PortfolioItem
	Testimonials []models.Testimonial
}

type productsView struct {
	Products   []models.Product
	Categories []string
	Category   string
}

type contactView struct {
	Form models.ContactRequest
	Sent bool
}

// snapshot loads the catalog, rendering an error page when the backend is unreachable
func (s *Server) snapshot(c *gin.Context) (*catalog.Snapshot, bool) {
	snap, err := s.catalog.Snapshot(c.Request.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load catalog")
		s.renderError(c, http.StatusBadGateway, "The shop is temporarily unavailable, please try again shortly")
		return nil, false
	}
	return snap, true
}

func (s *Server) home(c *gin.Context) {
	snap, ok := s.snapshot(c)
	if !ok {
		return
	}

	portfolio := snap.Portfolio
	if len(portfolio) > featuredLimit {
		portfolio = portfolio[:featuredLimit]
	}

	s.renderSite(c, http.StatusOK, "home.html", sitePage{
		Title:    snap.Settings.SiteName,
		Settings: snap.Settings,
		Data: homeView{
			Featured:     snap.Featured(featuredLimit),
			Categories:   snap.Categories(),
			Portfolio:    portfolio,
			Testimonials: snap.Testimonials,
		},
	})
}

func (s *Server) listProducts(c *gin.Context) {
	snap, ok := s.snapshot(c)
	if !ok {
		return
	}

	category := c.Query("category")
	products := snap.Products
	if category != "" {
		products = nil
		for _, p := range snap.Products {
			if strings.EqualFold(p.Category, category) {
				products = append(products, p)
			}
		}
	}

	s.renderSite(c, http.StatusOK, "products.html", sitePage{
		Title:    "Products",
		Settings: snap.Settings,
		Data: productsView{
			Products:   products,
			Categories: snap.Categories(),
			Category:   category,
		},
	})
}

// showProduct looks a product up by ID or slug in the snapshot, then asks the backend
func (s *Server) showProduct(c *gin.Context) {
	snap, ok := s.snapshot(c)
	if !ok {
		return
	}

	id := c.Param("id")
	var product *models.Product
	for i := range snap.Products {
		if snap.Products[i].ID == id || (snap.Products[i].Slug != "" && snap.Products[i].Slug == id) {
			product = &snap.Products[i]
			break
		}
	}

	if product == nil {
		p, err := s.public.Product(c.Request.Context(), id)
		if err != nil {
			if api.IsNotFound(err) {
				s.renderError(c, http.StatusNotFound, "Product not found")
				return
			}
			s.logger.Error().Err(err).Str("product_id", id).Msg("Failed to fetch product")
			s.renderError(c, http.StatusBadGateway, "Failed to load product")
			return
		}
		product = p
	}

	s.renderSite(c, http.StatusOK, "product.html", sitePage{
		Title:    product.Name,
		Settings: snap.Settings,
		Data:     product,
	})
}

func (s *Server) portfolio(c *gin.Context) {
	snap, ok := s.snapshot(c)
	if !ok {
		return
	}
	s.renderSite(c, http.StatusOK, "portfolio.html", sitePage{
		Title:    "Our work",
		Settings: snap.Settings,
		Data:     snap.Portfolio,
	})
}

func (s *Server) contactForm(c *gin.Context) {
	s.renderSite(c, http.StatusOK, "contact.html", sitePage{
		Title: "Contact us",
		Data:  contactView{Sent: c.Query("sent") != ""},
	})
}

func (s *Server) submitContactForm(c *gin.Context) {
	var req models.ContactRequest
	if err := c.ShouldBind(&req); err != nil {
		s.renderSite(c, http.StatusUnprocessableEntity, "contact.html", sitePage{
			Title: "Contact us",
			Error: "Please fill in your name, a valid email and a message",
			Data:  contactView{Form: req},
		})
		return
	}

	if err := s.submitContact(c.Request.Context(), &req); err != nil {
		s.renderSite(c, http.StatusBadGateway, "contact.html", sitePage{
			Title: "Contact us",
			Error: "We could not send your message, please try again or call us",
			Data:  contactView{Form: req},
		})
		return
	}

	c.Redirect(http.StatusSeeOther, "/contact?sent=1")
}

func (s *Server) submitContactJSON(c *gin.Context) {
	var req models.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.submitContact(c.Request.Context(), &req); err != nil {
		var se *api.StatusError
		if errors.As(err, &se) && se.Status < 500 {
			c.JSON(se.Status, gin.H{"error": se.Message})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to submit contact request"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Thanks, we will be in touch"})
}

// submitContact forwards a contact request and notifies the shop. A failed
// notification is logged and does not fail the submission.
func (s *Server) submitContact(ctx context.Context, req *models.ContactRequest) error {
	req.ID = ""
	req.Status = ""

	if err := s.public.SubmitContact(ctx, req); err != nil {
		s.logger.Error().Err(err).Str("email", req.Email).Msg("Failed to submit contact request")
		return err
	}
	s.logger.Info().Str("email", req.Email).Msg("Contact request submitted")

	snap, err := s.catalog.Snapshot(ctx)
	if err != nil || snap.Settings.ContactEmail == "" {
		return nil
	}
	if err := s.notifier.ContactReceived(ctx, snap.Settings.ContactEmail, req); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to send contact notification")
	}
	return nil
}
