package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	applogger "FxForecast/pkg/logger"
)

type denyAfter struct {
	left int
}

func (d *denyAfter) Allow(string) bool {
	if d.left <= 0 {
		return false
	}
	d.left--
	return true
}

func serve(e *echo.Echo, method, target string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRecoverTurnsPanicInto500(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(Recover(applogger.NewWriter(&buf, "debug")))
	e.GET("/boom", func(c echo.Context) error { panic("kaboom") })

	rec := serve(e, http.MethodGet, "/boom", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rec.Code)
	}
	if !strings.Contains(buf.String(), "kaboom") {
		t.Fatalf("panic not logged: %s", buf.String())
	}
}

func TestRequestLoggingWritesStatus(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(RequestLogging(applogger.NewWriter(&buf, "info")))
	e.GET("/ok", func(c echo.Context) error { return c.String(http.StatusTeapot, "x") })

	rec := serve(e, http.MethodGet, "/ok", nil)
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status=%d", rec.Code)
	}
	if !strings.Contains(buf.String(), `"status":418`) {
		t.Fatalf("missing status in log: %s", buf.String())
	}
}

func TestRateLimitRejects(t *testing.T) {
	e := echo.New()
	e.GET("/f", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, RateLimit(&denyAfter{left: 1}))

	if rec := serve(e, http.MethodGet, "/f", nil); rec.Code != http.StatusOK {
		t.Fatalf("first status=%d", rec.Code)
	}
	rec := serve(e, http.MethodGet, "/f", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second status=%d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("missing Retry-After")
	}
}

func TestCORS(t *testing.T) {
	e := echo.New()
	e.Use(CORS(CORSConfig{
		AllowOrigins: []string{"http://localhost:3000"},
		AllowMethods: []string{http.MethodGet, http.MethodPost},
	}))
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.OPTIONS("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := serve(e, http.MethodGet, "/x", map[string]string{echo.HeaderOrigin: "http://localhost:3000"})
	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "http://localhost:3000" {
		t.Fatalf("allow origin=%q", got)
	}

	rec = serve(e, http.MethodGet, "/x", map[string]string{echo.HeaderOrigin: "http://evil.example"})
	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "" {
		t.Fatalf("unexpected allow origin %q", got)
	}

	rec = serve(e, http.MethodOptions, "/x", map[string]string{echo.HeaderOrigin: "http://localhost:3000"})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status=%d", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderAccessControlAllowMethods); got != "GET, POST" {
		t.Fatalf("allow methods=%q", got)
	}
}

func TestStatusClass(t *testing.T) {
	cases := map[int]string{101: "1xx", 200: "2xx", 304: "3xx", 422: "4xx", 503: "5xx"}
	for code, want := range cases {
		if got := statusClass(code); got != want {
			t.Fatalf("statusClass(%d)=%s want %s", code, got, want)
		}
	}
}
