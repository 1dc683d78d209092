package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partsline/partsline/internal/cli/userconfig"
	"github.com/partsline/partsline/internal/models"
	"github.com/partsline/partsline/internal/session"
)

// memoryStores replaces the keyring with one in-memory store per backend
type memoryStores struct {
	mu     sync.Mutex
	stores map[string]*session.Memory
}

func useMemoryStores(t *testing.T) *memoryStores {
	t.Helper()

	m := &memoryStores{stores: map[string]*session.Memory{}}
	original := newTokenStore
	newTokenStore = func(apiURL string) session.Store {
		return m.get(apiURL)
	}
	t.Cleanup(func() { newTokenStore = original })
	return m
}

func (m *memoryStores) get(apiURL string) *session.Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.stores[apiURL]; ok {
		return s
	}
	s := session.NewMemory()
	m.stores[apiURL] = s
	return s
}

func mintToken(t *testing.T) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "u-1",
		"email": "owner@partsline.test",
		"role":  "admin",
	}).SignedString([]byte("backend-secret"))
	require.NoError(t, err)
	return token
}

type cliBackend struct {
	*httptest.Server

	mu      sync.Mutex
	token   string
	deleted []string
	created []models.Product
	auth    []string
}

func newCLIBackend(t *testing.T) *cliBackend {
	t.Helper()

	b := &cliBackend{token: mintToken(t)}
	mux := http.NewServeMux()

	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(v)
	}

	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			b.mu.Lock()
			b.auth = append(b.auth, r.Header.Get("Authorization"))
			b.mu.Unlock()
			if r.Header.Get("Authorization") != "Bearer "+b.token {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next(w, r)
		}
	}

	mux.HandleFunc("POST /admin/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "hunter22" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
			return
		}
		if req.Email == "bare@partsline.test" {
			writeJSON(w, http.StatusOK, map[string]string{"token": b.token})
			return
		}
		writeJSON(w, http.StatusOK, models.LoginResponse{
			Token: b.token,
			User:  models.User{Email: req.Email, Name: "Owner", Role: models.RoleAdmin},
		})
	})
	mux.HandleFunc("GET /admin/api/overview", authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.Overview{Products: 2, ContactRequests: 4, NewContacts: 2})
	}))
	mux.HandleFunc("GET /admin/api/products", authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []models.Product{
			{BaseModel: models.BaseModel{ID: "p1"}, Name: "Brake pads", Category: "Brakes", Price: 49.5},
			{BaseModel: models.BaseModel{ID: "p2"}, Name: "Oil filter", Category: "Filters", Price: 12},
		})
	}))
	mux.HandleFunc("POST /admin/api/products", authed(func(w http.ResponseWriter, r *http.Request) {
		var p models.Product
		json.NewDecoder(r.Body).Decode(&p)
		p.ID = "p3"
		b.mu.Lock()
		b.created = append(b.created, p)
		b.mu.Unlock()
		writeJSON(w, http.StatusCreated, p)
	}))
	mux.HandleFunc("DELETE /admin/api/products/{id}", authed(func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "missing" {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		b.mu.Lock()
		b.deleted = append(b.deleted, r.PathValue("id"))
		b.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	mux.HandleFunc("GET /admin/api/users", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	b.Server = httptest.NewServer(mux)
	t.Cleanup(b.Close)
	return b
}

// runCLI executes args against a fresh command tree
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	root := &cobra.Command{Use: "partsline", SilenceUsage: true, SilenceErrors: true}
	Register(root)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func setupCLI(t *testing.T) (*cliBackend, *memoryStores) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv(apiURLEnv, "")
	backend := newCLIBackend(t)
	return backend, useMemoryStores(t)
}

func TestUse_SavesBackend(t *testing.T) {
	backend, _ := setupCLI(t)

	out, err := runCLI(t, "", "use", backend.URL+"/")
	require.NoError(t, err)
	assert.Contains(t, out, "Selected backend: "+backend.URL)

	apiURL, err := userconfig.GetAPIURL()
	require.NoError(t, err)
	assert.Equal(t, backend.URL, apiURL)

	cfg, err := userconfig.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{backend.URL}, cfg.KnownAPIs)
}

func TestUse_RejectsInvalidURL(t *testing.T) {
	setupCLI(t)

	_, err := runCLI(t, "", "use", "ftp://files.example.test")
	assert.Error(t, err)
}

func TestCommands_RequireBackend(t *testing.T) {
	setupCLI(t)

	_, err := runCLI(t, "", "products", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "partsline use")
}

func TestLogin_StoresToken(t *testing.T) {
	backend, stores := setupCLI(t)

	out, err := runCLI(t, "", "--api", backend.URL, "login", "--email", "owner@partsline.test", "--password", "hunter22")
	require.NoError(t, err)
	assert.Contains(t, out, "Login successful")
	assert.Contains(t, out, "Role: admin")

	token, ok := stores.get(backend.URL).Get()
	assert.True(t, ok)
	assert.Equal(t, backend.token, token)
}

func TestLogin_TokenOnlyResponse(t *testing.T) {
	backend, stores := setupCLI(t)

	out, err := runCLI(t, "", "--api", backend.URL, "login", "--email", "bare@partsline.test", "--password", "hunter22")
	require.NoError(t, err)
	assert.Contains(t, out, "Login successful")
	assert.NotContains(t, out, "User:")

	token, ok := stores.get(backend.URL).Get()
	assert.True(t, ok)
	assert.Equal(t, backend.token, token)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	backend, stores := setupCLI(t)

	_, err := runCLI(t, "", "--api", backend.URL, "login", "--email", "owner@partsline.test", "--password", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid email or password")

	_, ok := stores.get(backend.URL).Get()
	assert.False(t, ok)
}

func TestLogin_RequiresEmail(t *testing.T) {
	backend, _ := setupCLI(t)
	t.Setenv("PARTSLINE_EMAIL", "")

	_, err := runCLI(t, "", "--api", backend.URL, "login", "--password", "hunter22")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email is required")
}

func TestWhoami(t *testing.T) {
	backend, stores := setupCLI(t)

	out, err := runCLI(t, "", "--api", backend.URL, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in")

	require.NoError(t, stores.get(backend.URL).Set(backend.token))
	out, err = runCLI(t, "", "--api", backend.URL, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "owner@partsline.test")
	assert.Contains(t, out, "u-1")
	assert.Contains(t, out, "admin")

	require.NoError(t, stores.get(backend.URL).Set("opaque"))
	out, err = runCLI(t, "", "--api", backend.URL, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "no readable claims")
}

func TestLogout_ClearsToken(t *testing.T) {
	backend, stores := setupCLI(t)
	require.NoError(t, stores.get(backend.URL).Set(backend.token))

	_, err := runCLI(t, "", "--api", backend.URL, "logout")
	require.NoError(t, err)

	_, ok := stores.get(backend.URL).Get()
	assert.False(t, ok)
}

func TestStatus(t *testing.T) {
	backend, stores := setupCLI(t)
	require.NoError(t, stores.get(backend.URL).Set(backend.token))

	out, err := runCLI(t, "", "--api", backend.URL, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "4 (2 new)")
}

func TestProductsList_Formats(t *testing.T) {
	backend, stores := setupCLI(t)
	require.NoError(t, stores.get(backend.URL).Set(backend.token))

	out, err := runCLI(t, "", "--api", backend.URL, "products", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "Brake pads")
	assert.Contains(t, out, "49.50")

	out, err = runCLI(t, "", "--api", backend.URL, "-o", "json", "products", "list")
	require.NoError(t, err)
	var products []models.Product
	require.NoError(t, json.Unmarshal([]byte(out), &products))
	assert.Len(t, products, 2)

	out, err = runCLI(t, "", "--api", backend.URL, "-o", "yaml", "products", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "name: Brake pads")

	_, err = runCLI(t, "", "--api", backend.URL, "-o", "xml", "products", "list")
	assert.Error(t, err)
}

func TestProductsList_NotLoggedIn(t *testing.T) {
	backend, _ := setupCLI(t)

	_, err := runCLI(t, "", "--api", backend.URL, "products", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "partsline login")

	backend.mu.Lock()
	defer backend.mu.Unlock()
	assert.Empty(t, backend.auth, "no request without a token")
}

func TestRejectedTokenIsCleared(t *testing.T) {
	backend, stores := setupCLI(t)
	require.NoError(t, stores.get(backend.URL).Set("stale"))

	_, err := runCLI(t, "", "--api", backend.URL, "products", "list")
	require.ErrorIs(t, err, errSessionRejected)

	_, ok := stores.get(backend.URL).Get()
	assert.False(t, ok)
}

func TestForbiddenIsTreatedAsRejected(t *testing.T) {
	backend, stores := setupCLI(t)
	require.NoError(t, stores.get(backend.URL).Set(backend.token))

	_, err := runCLI(t, "", "--api", backend.URL, "users", "list")
	require.ErrorIs(t, err, errSessionRejected)
}

func TestProductsCreate_FromYAMLFile(t *testing.T) {
	backend, stores := setupCLI(t)
	require.NoError(t, stores.get(backend.URL).Set(backend.token))

	path := filepath.Join(t.TempDir(), "product.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: Spark plug\ncategory: Ignition\nprice: 7.25\nin_stock: true\n"), 0644))

	out, err := runCLI(t, "", "--api", backend.URL, "products", "create", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Created product p3")

	require.Len(t, backend.created, 1)
	assert.Equal(t, "Spark plug", backend.created[0].Name)
	assert.Equal(t, 7.25, backend.created[0].Price)
}

func TestProductsCreate_FromJSONStdin(t *testing.T) {
	backend, stores := setupCLI(t)
	require.NoError(t, stores.get(backend.URL).Set(backend.token))

	_, err := runCLI(t, `{"name": "Wiper blade", "category": "Exterior", "price": 15}`,
		"--api", backend.URL, "products", "create", "-f", "-")
	require.NoError(t, err)
	require.Len(t, backend.created, 1)
	assert.Equal(t, "Wiper blade", backend.created[0].Name)
}

func TestProductsCreate_InvalidFile(t *testing.T) {
	backend, stores := setupCLI(t)
	require.NoError(t, stores.get(backend.URL).Set(backend.token))

	_, err := runCLI(t, "price: 3\n", "--api", backend.URL, "products", "create", "-f", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid")
	assert.Empty(t, backend.created)
}

func TestContacts_NotCreatable(t *testing.T) {
	backend, _ := setupCLI(t)

	_, err := runCLI(t, "", "--api", backend.URL, "contacts", "create", "-f", "-")
	assert.Error(t, err)
}

func TestProductsDelete(t *testing.T) {
	backend, stores := setupCLI(t)
	require.NoError(t, stores.get(backend.URL).Set(backend.token))

	out, err := runCLI(t, "", "--api", backend.URL, "products", "delete", "p1", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted product p1")
	assert.Equal(t, []string{"p1"}, backend.deleted)

	_, err = runCLI(t, "", "--api", backend.URL, "products", "delete", "missing", "--yes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

type recordingUploader struct {
	filename string
	data     []byte
}

func (u *recordingUploader) Upload(_ context.Context, filename, _ string, r io.Reader) (string, error) {
	u.filename = filename
	u.data, _ = io.ReadAll(r)
	return "https://cdn.partsline.test/uploads/" + filename, nil
}

func TestUpload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rotor.png")
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG\r\n\x1a\n"), 0644))

	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())

	uploader := &recordingUploader{}
	require.NoError(t, runUpload(cmd, uploader, path))

	assert.Equal(t, "rotor.png", uploader.filename)
	assert.Equal(t, "https://cdn.partsline.test/uploads/rotor.png\n", out.String())
}

func TestUpload_NotConfigured(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CDN_ENDPOINT", "")
	t.Setenv("CDN_BUCKET", "")

	_, err := runCLI(t, "", "upload", "rotor.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CDN is not configured")
}
