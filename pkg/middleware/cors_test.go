package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func corsRequest(cfg CORSConfig, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/api/v1/menu", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rr := httptest.NewRecorder()
	CORS(cfg)(okHandler()).ServeHTTP(rr, req)
	return rr
}

func TestCORS_DevMode_AllowsWildcard(t *testing.T) {
	rr := corsRequest(CORSConfig{Environment: "development"}, http.MethodGet, "https://anywhere.example")

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestCORS_ProdMode_AllowedOrigin(t *testing.T) {
	cfg := CORSConfig{AllowedOrigins: []string{"https://quecomemoshoy.example/", "https://admin.example"}, Environment: "production"}
	rr := corsRequest(cfg, http.MethodGet, "https://quecomemoshoy.example")

	assert.Equal(t, "https://quecomemoshoy.example", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", rr.Header().Get("Vary"))
}

func TestCORS_ProdMode_UnknownOriginRejected(t *testing.T) {
	cfg := CORSConfig{AllowedOrigins: []string{"https://quecomemoshoy.example"}, Environment: "production"}
	rr := corsRequest(cfg, http.MethodGet, "https://evil.example")

	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestCORS_ExplicitWildcardInProduction(t *testing.T) {
	rr := corsRequest(CORSConfig{AllowedOrigins: []string{"*"}, Environment: "production"}, http.MethodGet, "https://x.example")
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_Preflight(t *testing.T) {
	rr := corsRequest(CORSConfig{Environment: "development"}, http.MethodOptions, "https://x.example")

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "3600", rr.Header().Get("Access-Control-Max-Age"))
}

func TestCORS_DefaultHeadersIncludeSessionAndConfirm(t *testing.T) {
	rr := corsRequest(CORSConfig{Environment: "development"}, http.MethodGet, "")

	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Headers"), SessionIDHeader)
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Headers"), "X-Confirm-Token")
	assert.Equal(t, "X-Correlation-ID, X-Session-ID", rr.Header().Get("Access-Control-Expose-Headers"))
	assert.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", rr.Header().Get("Access-Control-Allow-Methods"))
}

func TestCORS_AllowCredentials(t *testing.T) {
	cfg := CORSConfig{AllowedOrigins: []string{"https://quecomemoshoy.example"}, AllowCredentials: true, Environment: "production"}
	rr := corsRequest(cfg, http.MethodGet, "https://quecomemoshoy.example")

	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORS_DefaultConfig(t *testing.T) {
	cfg := DefaultCORSConfig()
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Contains(t, cfg.AllowedMethods, "DELETE")
	assert.Equal(t, 3600, cfg.MaxAge)
	assert.Equal(t, "development", cfg.Environment)
}

func TestCacheControl_OnlyGET(t *testing.T) {
	h := CacheControl(60)(okHandler())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/menu", nil))
	assert.Equal(t, "public, max-age=60", rr.Header().Get("Cache-Control"))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/menu", nil))
	assert.Empty(t, rr.Header().Get("Cache-Control"))
}

func TestNoStore(t *testing.T) {
	rr := httptest.NewRecorder()
	NoStore(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
}
