package session

import (
	"errors"
	"net/http"

	"github.com/gorilla/securecookie"
)

const (
	// CookieName is the fixed key the admin token lives under in the browser
	CookieName = "partsline_admin_token"

	cookiePath   = "/admin"
	cookieMaxAge = 365 * 24 * 3600
)

var errNoResponse = errors.New("cookie store is not bound to a response")

// CookieCodec signs and encrypts the admin token cookie
type CookieCodec struct {
	sc     *securecookie.SecureCookie
	secure bool
}

// NewCookieCodec builds a codec. Nil keys are replaced by random ones, which
// invalidates existing cookies on every restart.
func NewCookieCodec(hashKey, blockKey []byte, secure bool) *CookieCodec {
	if len(hashKey) == 0 {
		hashKey = securecookie.GenerateRandomKey(32)
	}
	if len(blockKey) == 0 {
		blockKey = securecookie.GenerateRandomKey(32)
	}

	sc := securecookie.New(hashKey, blockKey)
	sc.SetSerializer(securecookie.JSONEncoder{})
	// validity is the backend's call, not the cookie timestamp's
	sc.MaxAge(0)

	return &CookieCodec{sc: sc, secure: secure}
}

// Bind returns a Store reading from r and writing to w
func (c *CookieCodec) Bind(w http.ResponseWriter, r *http.Request) *Cookie {
	return &Cookie{codec: c, w: w, r: r}
}

// Cookie is a Store over one request/response pair
type Cookie struct {
	codec *CookieCodec
	w     http.ResponseWriter
	r     *http.Request

	// set once the token changes during this request
	dirty bool
	token string
}

func (c *Cookie) Get() (string, bool) {
	if c.dirty {
		return c.token, c.token != ""
	}
	if c.r == nil {
		return "", false
	}

	cookie, err := c.r.Cookie(CookieName)
	if err != nil {
		return "", false
	}

	var token string
	if err := c.codec.sc.Decode(CookieName, cookie.Value, &token); err != nil {
		return "", false
	}
	return token, token != ""
}

func (c *Cookie) Set(token string) error {
	if token == "" {
		return c.Clear()
	}
	if c.w == nil {
		return errNoResponse
	}

	encoded, err := c.codec.sc.Encode(CookieName, token)
	if err != nil {
		return err
	}

	http.SetCookie(c.w, c.cookie(encoded, cookieMaxAge))
	c.dirty, c.token = true, token
	return nil
}

func (c *Cookie) Clear() error {
	c.dirty, c.token = true, ""
	if c.w == nil {
		return nil
	}
	http.SetCookie(c.w, c.cookie("", -1))
	return nil
}

func (c *Cookie) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     cookiePath,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.codec.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
