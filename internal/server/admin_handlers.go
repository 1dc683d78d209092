package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/partsline/partsline/internal/api"
	"github.com/partsline/partsline/internal/media"
	"github.com/partsline/partsline/internal/models"
)

// adminClient returns an API client that authenticates with the request's token
func (s *Server) adminClient(c *gin.Context) *api.Client {
	return api.New(s.gw.WithStore(GetSession(c)))
}

// formField describes one input on an admin form. Name matches the JSON/form key.
type formField struct {
	Name     string
	Label    string
	Type     string // text, textarea, number, checkbox, select, email, url, date, password, image
	Options  []string
	Required bool
}

type fieldView struct {
	formField
	Value   string
	Checked bool
}

type listView struct {
	Slug      string
	Columns   []string
	Rows      []rowView
	Creatable bool
}

type rowView struct {
	ID    string
	Cells []string
}

type formView struct {
	Slug   string
	ID     string
	Action string
	Fields []fieldView
}

// fieldValues flattens a record into form values keyed by JSON name
func fieldValues(fields []formField, item any) []fieldView {
	values := map[string]any{}
	if data, err := json.Marshal(item); err == nil {
		_ = json.Unmarshal(data, &values)
	}

	views := make([]fieldView, len(fields))
	for i, f := range fields {
		views[i] = fieldView{formField: f}
		switch v := values[f.Name].(type) {
		case string:
			views[i].Value = v
		case bool:
			views[i].Checked = v
			views[i].Value = strconv.FormatBool(v)
		case float64:
			views[i].Value = strconv.FormatFloat(v, 'f', -1, 64)
		}
		if f.Type == "password" {
			views[i].Value = ""
		}
	}
	return views
}

func (s *Server) overview(c *gin.Context) {
	overview, err := s.adminClient(c).Overview(c.Request.Context())
	if err != nil {
		s.handleAdminError(c, err, "load the overview")
		return
	}
	s.renderAdmin(c, http.StatusOK, "admin_overview.html", adminPage{
		Title: "Overview",
		Data:  overview,
	})
}

var settingsFields = []formField{
	{Name: "site_name", Label: "Site name", Type: "text", Required: true},
	{Name: "hero_title", Label: "Hero title", Type: "text"},
	{Name: "hero_subtitle", Label: "Hero subtitle", Type: "textarea"},
	{Name: "hero_image_url", Label: "Hero image", Type: "image"},
	{Name: "contact_email", Label: "Contact email", Type: "email"},
	{Name: "contact_phone", Label: "Contact phone", Type: "text"},
	{Name: "address", Label: "Address", Type: "textarea"},
	{Name: "facebook_url", Label: "Facebook URL", Type: "url"},
	{Name: "instagram_url", Label: "Instagram URL", Type: "url"},
}

func (s *Server) settingsForm(c *gin.Context) {
	settings, err := s.adminClient(c).Settings.Get(c.Request.Context())
	if err != nil {
		s.handleAdminError(c, err, "load settings")
		return
	}
	s.renderSettings(c, http.StatusOK, settings, c.Query("saved") != "", "")
}

func (s *Server) saveSettings(c *gin.Context) {
	var settings models.Settings
	if err := c.ShouldBind(&settings); err != nil {
		s.renderSettings(c, http.StatusUnprocessableEntity, &settings, false, err.Error())
		return
	}

	if _, err := s.adminClient(c).Settings.Update(c.Request.Context(), &settings); err != nil {
		s.handleAdminError(c, err, "save settings")
		return
	}

	s.catalog.Invalidate()
	c.Redirect(http.StatusSeeOther, adminPrefix+"/settings?saved=1")
}

func (s *Server) renderSettings(c *gin.Context, status int, settings *models.Settings, saved bool, errMsg string) {
	page := adminPage{
		Title: "Site settings",
		Error: errMsg,
		Data: formView{
			Slug:   "settings",
			Action: adminPrefix + "/settings",
			Fields: fieldValues(settingsFields, settings),
		},
	}
	if saved {
		page.Flash = "Settings saved"
	}
	s.renderAdmin(c, status, "admin_form.html", page)
}

// upload proxies an image to the CDN and returns its URL
func (s *Server) upload(c *gin.Context) {
	if s.uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Image uploads are not configured"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.uploader.MaxBytes()+1<<20)
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable file"})
		return
	}
	defer f.Close()

	url, err := s.uploader.Upload(c.Request.Context(), fh.Filename, fh.Header.Get("Content-Type"), f)
	switch {
	case errors.Is(err, media.ErrNotImage):
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
		return
	case errors.Is(err, media.ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("Images must be at most %d bytes", s.uploader.MaxBytes())})
		return
	case err != nil:
		s.logger.Error().Err(err).Msg("Image upload failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Upload failed"})
		return
	}

	s.logger.Info().Str("url", url).Msg("Image uploaded")
	c.JSON(http.StatusCreated, gin.H{"url": url})
}
