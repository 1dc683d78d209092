package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/partsline/partsline/internal/api"
	"github.com/partsline/partsline/internal/models"
)

// adminEntity is one CRUD screen of the admin panel
type adminEntity interface {
	Slug() string
	Title() string
	register(s *Server, g *gin.RouterGroup)
}

type column[T any] struct {
	Label string
	Value func(*T) string
}

// crudEntity wires list/new/edit/delete pages for one backend collection
type crudEntity[T any] struct {
	slug      string
	title     string
	creatable bool
	fields    []formField
	columns   []column[T]
	resource  func(*api.Client) *api.Resource[T]
	id        func(*T) string
}

func (e *crudEntity[T]) Slug() string  { return e.slug }
func (e *crudEntity[T]) Title() string { return e.title }

func (e *crudEntity[T]) register(s *Server, g *gin.RouterGroup) {
	g.GET("", e.list(s))
	if e.creatable {
		g.GET("/new", e.newForm(s))
		g.POST("", e.save(s))
	}
	g.GET("/:id", e.edit(s))
	g.POST("/:id", e.save(s))
	g.POST("/:id/delete", e.delete(s))
}

func (e *crudEntity[T]) base() string {
	return adminPrefix + "/" + e.slug
}

func (e *crudEntity[T]) list(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := e.resource(s.adminClient(c)).List(c.Request.Context())
		if err != nil {
			s.handleAdminError(c, err, "load "+e.slug)
			return
		}

		view := listView{Slug: e.slug, Creatable: e.creatable}
		for _, col := range e.columns {
			view.Columns = append(view.Columns, col.Label)
		}
		for i := range items {
			row := rowView{ID: e.id(&items[i])}
			for _, col := range e.columns {
				row.Cells = append(row.Cells, col.Value(&items[i]))
			}
			view.Rows = append(view.Rows, row)
		}

		page := adminPage{Title: e.title, Data: view}
		switch {
		case c.Query("saved") != "":
			page.Flash = "Saved"
		case c.Query("deleted") != "":
			page.Flash = "Deleted"
		}
		s.renderAdmin(c, http.StatusOK, "admin_list.html", page)
	}
}

func (e *crudEntity[T]) newForm(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var item T
		e.renderForm(s, c, http.StatusOK, "", &item, "")
	}
}

func (e *crudEntity[T]) edit(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		item, err := e.resource(s.adminClient(c)).Get(c.Request.Context(), id)
		if err != nil {
			if api.IsNotFound(err) {
				s.renderAdmin(c, http.StatusNotFound, "admin_error.html", adminPage{
					Title: e.title,
					Error: fmt.Sprintf("No record with id %s", id),
				})
				return
			}
			s.handleAdminError(c, err, "load "+e.slug)
			return
		}
		e.renderForm(s, c, http.StatusOK, id, item, "")
	}
}

// save creates when there is no :id and updates otherwise
func (e *crudEntity[T]) save(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		var item T
		if err := c.ShouldBind(&item); err != nil {
			e.renderForm(s, c, http.StatusUnprocessableEntity, id, &item, err.Error())
			return
		}

		resource := e.resource(s.adminClient(c))
		var err error
		if id == "" {
			_, err = resource.Create(c.Request.Context(), &item)
		} else {
			_, err = resource.Update(c.Request.Context(), id, &item)
		}
		if err != nil {
			s.handleAdminError(c, err, "save "+e.slug)
			return
		}

		s.catalog.Invalidate()
		c.Redirect(http.StatusSeeOther, e.base()+"?saved=1")
	}
}

func (e *crudEntity[T]) delete(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := e.resource(s.adminClient(c)).Delete(c.Request.Context(), c.Param("id")); err != nil {
			s.handleAdminError(c, err, "delete from "+e.slug)
			return
		}
		s.catalog.Invalidate()
		c.Redirect(http.StatusSeeOther, e.base()+"?deleted=1")
	}
}

func (e *crudEntity[T]) renderForm(s *Server, c *gin.Context, status int, id string, item *T, errMsg string) {
	action := e.base()
	title := "New " + e.title
	if id != "" {
		action = e.base() + "/" + id
		title = "Edit " + e.title
	}
	s.renderAdmin(c, status, "admin_form.html", adminPage{
		Title: title,
		Error: errMsg,
		Data: formView{
			Slug:   e.slug,
			ID:     id,
			Action: action,
			Fields: fieldValues(e.fields, item),
		},
	})
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

var adminEntities = []adminEntity{
	&crudEntity[models.Product]{
		slug:      "products",
		title:     "Products",
		creatable: true,
		resource:  func(c *api.Client) *api.Resource[models.Product] { return c.Products },
		id:        func(p *models.Product) string { return p.ID },
		fields: []formField{
			{Name: "name", Label: "Name", Type: "text", Required: true},
			{Name: "slug", Label: "Slug", Type: "text"},
			{Name: "category", Label: "Category", Type: "text", Required: true},
			{Name: "sku", Label: "SKU", Type: "text"},
			{Name: "price", Label: "Price", Type: "number"},
			{Name: "description", Label: "Description", Type: "textarea"},
			{Name: "image_url", Label: "Image", Type: "image"},
			{Name: "featured", Label: "Featured", Type: "checkbox"},
			{Name: "in_stock", Label: "In stock", Type: "checkbox"},
		},
		columns: []column[models.Product]{
			{Label: "Name", Value: func(p *models.Product) string { return p.Name }},
			{Label: "Category", Value: func(p *models.Product) string { return p.Category }},
			{Label: "Price", Value: func(p *models.Product) string { return fmt.Sprintf("%.2f", p.Price) }},
			{Label: "Featured", Value: func(p *models.Product) string { return yesNo(p.Featured) }},
			{Label: "In stock", Value: func(p *models.Product) string { return yesNo(p.InStock) }},
		},
	},
	&crudEntity[models.PortfolioItem]{
		slug:      "portfolio",
		title:     "Portfolio",
		creatable: true,
		resource:  func(c *api.Client) *api.Resource[models.PortfolioItem] { return c.Portfolio },
		id:        func(p *models.PortfolioItem) string { return p.ID },
		fields: []formField{
			{Name: "title", Label: "Title", Type: "text", Required: true},
			{Name: "category", Label: "Category", Type: "text"},
			{Name: "description", Label: "Description", Type: "textarea"},
			{Name: "image_url", Label: "Image", Type: "image", Required: true},
			{Name: "completed_at", Label: "Completed on", Type: "date"},
		},
		columns: []column[models.PortfolioItem]{
			{Label: "Title", Value: func(p *models.PortfolioItem) string { return p.Title }},
			{Label: "Category", Value: func(p *models.PortfolioItem) string { return p.Category }},
			{Label: "Completed", Value: func(p *models.PortfolioItem) string { return p.CompletedAt }},
		},
	},
	&crudEntity[models.Testimonial]{
		slug:      "testimonials",
		title:     "Testimonials",
		creatable: true,
		resource:  func(c *api.Client) *api.Resource[models.Testimonial] { return c.Testimonials },
		id:        func(t *models.Testimonial) string { return t.ID },
		fields: []formField{
			{Name: "author", Label: "Author", Type: "text", Required: true},
			{Name: "vehicle", Label: "Vehicle", Type: "text"},
			{Name: "quote", Label: "Quote", Type: "textarea", Required: true},
			{Name: "rating", Label: "Rating", Type: "select", Options: []string{"5", "4", "3", "2", "1"}, Required: true},
			{Name: "published", Label: "Published", Type: "checkbox"},
		},
		columns: []column[models.Testimonial]{
			{Label: "Author", Value: func(t *models.Testimonial) string { return t.Author }},
			{Label: "Vehicle", Value: func(t *models.Testimonial) string { return t.Vehicle }},
			{Label: "Rating", Value: func(t *models.Testimonial) string { return strconv.Itoa(t.Rating) }},
			{Label: "Published", Value: func(t *models.Testimonial) string { return yesNo(t.Published) }},
		},
	},
	&crudEntity[models.ContactRequest]{
		slug:     "contacts",
		title:    "Contact requests",
		resource: func(c *api.Client) *api.Resource[models.ContactRequest] { return c.ContactRequests },
		id:       func(r *models.ContactRequest) string { return r.ID },
		fields: []formField{
			{Name: "name", Label: "Name", Type: "text", Required: true},
			{Name: "email", Label: "Email", Type: "email", Required: true},
			{Name: "phone", Label: "Phone", Type: "text"},
			{Name: "message", Label: "Message", Type: "textarea", Required: true},
			{Name: "status", Label: "Status", Type: "select", Options: []string{
				string(models.ContactNew), string(models.ContactRead), string(models.ContactArchived),
			}},
		},
		columns: []column[models.ContactRequest]{
			{Label: "Name", Value: func(r *models.ContactRequest) string { return r.Name }},
			{Label: "Email", Value: func(r *models.ContactRequest) string { return r.Email }},
			{Label: "Status", Value: func(r *models.ContactRequest) string { return string(r.Status) }},
			{Label: "Received", Value: func(r *models.ContactRequest) string {
				if r.CreatedAt == nil {
					return ""
				}
				return r.CreatedAt.Format("2006-01-02 15:04")
			}},
		},
	},
	&crudEntity[models.User]{
		slug:      "users",
		title:     "Users",
		creatable: true,
		resource:  func(c *api.Client) *api.Resource[models.User] { return c.Users },
		id:        func(u *models.User) string { return u.ID },
		fields: []formField{
			{Name: "email", Label: "Email", Type: "email", Required: true},
			{Name: "name", Label: "Name", Type: "text"},
			{Name: "role", Label: "Role", Type: "select", Options: []string{
				string(models.RoleStaff), string(models.RoleAdmin), string(models.RoleSuperAdmin),
			}, Required: true},
			{Name: "password", Label: "Password (leave blank to keep)", Type: "password"},
		},
		columns: []column[models.User]{
			{Label: "Email", Value: func(u *models.User) string { return u.Email }},
			{Label: "Name", Value: func(u *models.User) string { return u.Name }},
			{Label: "Role", Value: func(u *models.User) string { return string(u.Role) }},
		},
	},
}
