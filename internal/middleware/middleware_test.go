package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/omarrislam/Quiz-App/internal/service"
)

func init() { gin.SetMode(gin.TestMode) }

func TestRateLimiterRefill(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := base
	rl := NewRateLimiter(ctx, 2, time.Minute)
	rl.now = func() time.Time { return now }

	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatal("first two requests rejected")
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("third request admitted")
	}
	if !rl.Allow("5.6.7.8") {
		t.Fatal("other client rejected")
	}

	now = base.Add(59 * time.Second)
	if rl.Allow("1.2.3.4") {
		t.Fatal("refilled before interval")
	}
	now = base.Add(time.Minute)
	if !rl.Allow("1.2.3.4") {
		t.Fatal("not refilled after interval")
	}

	now = base.Add(10 * time.Minute)
	rl.Allow("5.6.7.8")
	now = base.Add(time.Hour)
	rl.cleanup()
	if len(rl.visitors) != 0 {
		t.Fatalf("visitors left = %d", len(rl.visitors))
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := gin.New()
	r.Use(NewRateLimiter(ctx, 1, time.Minute).Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i, want := range []int{http.StatusNoContent, http.StatusTooManyRequests} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		if w.Code != want {
			t.Fatalf("request %d: status %d, want %d", i+1, w.Code, want)
		}
	}
}

type stubValidator struct {
	claims *service.Claims
	err    error
}

func (s stubValidator) ValidateToken(string) (*service.Claims, error) { return s.claims, s.err }

func TestRequireInstructorJWT(t *testing.T) {
	id := uuid.New()
	instructor := &service.Claims{TokenType: service.TokenTypeInstructor}
	instructor.Subject = id.String()
	secondCam := &service.Claims{TokenType: service.TokenTypeSecondCam}
	secondCam.Subject = uuid.NewString()

	cases := []struct {
		name   string
		header string
		v      stubValidator
		want   int
	}{
		{"missing", "", stubValidator{}, http.StatusUnauthorized},
		{"not bearer", "Basic abc", stubValidator{}, http.StatusUnauthorized},
		{"invalid", "Bearer x", stubValidator{err: errors.New("bad")}, http.StatusUnauthorized},
		{"wrong type", "Bearer x", stubValidator{claims: secondCam}, http.StatusForbidden},
		{"ok", "bearer x", stubValidator{claims: instructor}, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			var got uuid.UUID
			r.GET("/", RequireInstructorJWT(tc.v), func(c *gin.Context) {
				got = GetInstructorID(c)
				c.Status(http.StatusOK)
			})
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d", w.Code, tc.want)
			}
			if tc.want == http.StatusOK && got != id {
				t.Fatalf("instructor id = %s", got)
			}
		})
	}
}

func TestBrotli(t *testing.T) {
	big := strings.Repeat("quiz ", 500)

	r := gin.New()
	r.Use(Brotli())
	r.GET("/big", func(c *gin.Context) { c.String(http.StatusOK, big) })
	r.GET("/small", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/xlsx", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", []byte(big))
	})

	do := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Accept-Encoding", "gzip, br;q=1.0")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := do("/big")
	if w.Header().Get("Content-Encoding") != "br" {
		t.Fatal("large body not compressed")
	}
	body, err := io.ReadAll(brotli.NewReader(bytes.NewReader(w.Body.Bytes())))
	if err != nil || string(body) != big {
		t.Fatalf("decoded body mismatch: %v", err)
	}

	w = do("/small")
	if w.Header().Get("Content-Encoding") != "" || w.Body.String() != "ok" {
		t.Fatalf("small body altered: %q", w.Body.String())
	}

	w = do("/xlsx")
	if w.Header().Get("Content-Encoding") != "" || w.Body.String() != big {
		t.Fatal("spreadsheet recompressed")
	}
}
