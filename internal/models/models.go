package models

import (
	"fmt"
	"strings"
	"time"
)

// Role is an admin account's permission level on the backend
type Role string

const (
	RoleSuperAdmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleStaff      Role = "staff"
)

// ParseRole validates a role string
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleSuperAdmin, RoleAdmin, RoleStaff:
		return r, nil
	default:
		return "", fmt.Errorf("invalid role '%s', must be one of: superadmin, admin, staff", s)
	}
}

// BaseModel carries the fields the backend assigns to every record
type BaseModel struct {
	ID        string     `json:"id,omitempty" yaml:"id,omitempty" form:"-"`
	CreatedAt *time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty" form:"-"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty" form:"-"`
}

// GetID returns the record ID
func (b BaseModel) GetID() string {
	return b.ID
}

// Product is a catalog entry shown on the storefront
type Product struct {
	BaseModel   `yaml:",inline"`
	Name        string  `json:"name" yaml:"name" form:"name" binding:"required,max=200"`
	Slug        string  `json:"slug,omitempty" yaml:"slug,omitempty" form:"slug" binding:"omitempty,max=200"`
	Category    string  `json:"category" yaml:"category" form:"category" binding:"required,max=100"`
	SKU         string  `json:"sku,omitempty" yaml:"sku,omitempty" form:"sku" binding:"omitempty,max=64"`
	Price       float64 `json:"price" yaml:"price" form:"price" binding:"gte=0"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty" form:"description"`
	ImageURL    string  `json:"image_url,omitempty" yaml:"image_url,omitempty" form:"image_url" binding:"omitempty,url"`
	Featured    bool    `json:"featured" yaml:"featured" form:"featured"`
	InStock     bool    `json:"in_stock" yaml:"in_stock" form:"in_stock"`
}

// PortfolioItem is a finished job in the gallery
type PortfolioItem struct {
	BaseModel   `yaml:",inline"`
	Title       string `json:"title" yaml:"title" form:"title" binding:"required,max=200"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" form:"description"`
	Category    string `json:"category,omitempty" yaml:"category,omitempty" form:"category" binding:"omitempty,max=100"`
	ImageURL    string `json:"image_url" yaml:"image_url" form:"image_url" binding:"required,url"`
	CompletedAt string `json:"completed_at,omitempty" yaml:"completed_at,omitempty" form:"completed_at" binding:"omitempty,datetime=2006-01-02"`
}

// Testimonial is a customer quote
type Testimonial struct {
	BaseModel `yaml:",inline"`
	Author    string `json:"author" yaml:"author" form:"author" binding:"required,max=120"`
	Vehicle   string `json:"vehicle,omitempty" yaml:"vehicle,omitempty" form:"vehicle" binding:"omitempty,max=120"`
	Quote     string `json:"quote" yaml:"quote" form:"quote" binding:"required"`
	Rating    int    `json:"rating" yaml:"rating" form:"rating" binding:"required,min=1,max=5"`
	Published bool   `json:"published" yaml:"published" form:"published"`
}

// ContactStatus tracks how far an admin got with a contact request
type ContactStatus string

const (
	ContactNew      ContactStatus = "new"
	ContactRead     ContactStatus = "read"
	ContactArchived ContactStatus = "archived"
)

// ContactRequest is a message submitted through the storefront contact form
type ContactRequest struct {
	BaseModel `yaml:",inline"`
	Name      string        `json:"name" yaml:"name" form:"name" binding:"required,max=120"`
	Email     string        `json:"email" yaml:"email" form:"email" binding:"required,email"`
	Phone     string        `json:"phone,omitempty" yaml:"phone,omitempty" form:"phone" binding:"omitempty,max=40"`
	Message   string        `json:"message" yaml:"message" form:"message" binding:"required,max=5000"`
	Status    ContactStatus `json:"status,omitempty" yaml:"status,omitempty" form:"status" binding:"omitempty,oneof=new read archived"`
}

// User is an admin panel account. Passwords are only ever sent, never read back.
type User struct {
	BaseModel `yaml:",inline"`
	Email     string `json:"email" yaml:"email" form:"email" binding:"required,email"`
	Name      string `json:"name,omitempty" yaml:"name,omitempty" form:"name" binding:"omitempty,max=120"`
	Role      Role   `json:"role" yaml:"role" form:"role" binding:"required,oneof=superadmin admin staff"`
	Password  string `json:"password,omitempty" yaml:"password,omitempty" form:"password" binding:"omitempty,min=8"`
}

// Settings is the singleton site configuration
type Settings struct {
	SiteName     string `json:"site_name" yaml:"site_name" form:"site_name" binding:"required,max=120"`
	HeroTitle    string `json:"hero_title" yaml:"hero_title" form:"hero_title" binding:"max=200"`
	HeroSubtitle string `json:"hero_subtitle,omitempty" yaml:"hero_subtitle,omitempty" form:"hero_subtitle"`
	HeroImageURL string `json:"hero_image_url,omitempty" yaml:"hero_image_url,omitempty" form:"hero_image_url" binding:"omitempty,url"`
	ContactEmail string `json:"contact_email,omitempty" yaml:"contact_email,omitempty" form:"contact_email" binding:"omitempty,email"`
	ContactPhone string `json:"contact_phone,omitempty" yaml:"contact_phone,omitempty" form:"contact_phone"`
	Address      string `json:"address,omitempty" yaml:"address,omitempty" form:"address"`
	FacebookURL  string `json:"facebook_url,omitempty" yaml:"facebook_url,omitempty" form:"facebook_url" binding:"omitempty,url"`
	InstagramURL string `json:"instagram_url,omitempty" yaml:"instagram_url,omitempty" form:"instagram_url" binding:"omitempty,url"`
}

// Overview holds the entity counts shown on the admin dashboard
type Overview struct {
	Products        int `json:"products" yaml:"products"`
	Portfolio       int `json:"portfolio" yaml:"portfolio"`
	Testimonials    int `json:"testimonials" yaml:"testimonials"`
	ContactRequests int `json:"contact_requests" yaml:"contact_requests"`
	NewContacts     int `json:"new_contacts" yaml:"new_contacts"`
	Users           int `json:"users" yaml:"users"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
}

// LoginResponse represents the login response. Only the token is required;
// backends may omit the user.
type LoginResponse struct {
	Token string `json:"token" binding:"required"`
	User  User   `json:"user" binding:"-"`
}
