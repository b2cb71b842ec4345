package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	return r
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestRequestIDKeepsCallerValue(t *testing.T) {
	r := newEngine(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(KeyRequestID)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(KeyRequestID, "abc-123")
	rr := serve(r, req)
	if rr.Header().Get(KeyRequestID) != "abc-123" || rr.Body.String() != "abc-123" {
		t.Fatalf("expected caller request id, got header=%q body=%q", rr.Header().Get(KeyRequestID), rr.Body.String())
	}

	rr = serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	if len(rr.Header().Get(KeyRequestID)) != 36 {
		t.Fatalf("expected generated uuid, got %q", rr.Header().Get(KeyRequestID))
	}
}

func TestRateLimitPerIPSeparatesClients(t *testing.T) {
	r := newEngine(RateLimitPerIP(0.001, 2))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	from := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":4000"
		return serve(r, req).Code
	}

	for i := 0; i < 2; i++ {
		if code := from("10.0.0.1"); code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, code)
		}
	}
	if code := from("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 once the bucket is empty, got %d", code)
	}
	if code := from("10.0.0.2"); code != http.StatusOK {
		t.Fatalf("other client should not be limited, got %d", code)
	}
}

func TestConcurrencyLimitRejectsWhenContextEnds(t *testing.T) {
	hold := make(chan struct{})
	started := make(chan struct{})
	r := newEngine(ConcurrencyLimit(1), Timeout(50*time.Millisecond))
	r.GET("/slow", func(c *gin.Context) {
		close(started)
		<-hold
		c.Status(http.StatusOK)
	})
	r.GET("/fast", func(c *gin.Context) { c.Status(http.StatusOK) })

	done := make(chan int)
	go func() { done <- serve(r, httptest.NewRequest(http.MethodGet, "/slow", nil)).Code }()
	<-started

	// the waiter blocks before Timeout runs, so its deadline comes from the request
	req := httptest.NewRequest(http.MethodGet, "/fast", nil)
	ctx, cancel := context.WithTimeout(req.Context(), 50*time.Millisecond)
	defer cancel()
	if code := serve(r, req.WithContext(ctx)).Code; code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 while the slot is held, got %d", code)
	}

	close(hold)
	if code := <-done; code != http.StatusOK {
		t.Fatalf("slow request: expected 200, got %d", code)
	}
}

func TestTimeoutAnswers504(t *testing.T) {
	r := newEngine(Timeout(10 * time.Millisecond))
	r.GET("/", func(c *gin.Context) {
		<-c.Request.Context().Done()
	})

	rr := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d", rr.Code)
	}
}

func TestMaxBodyBytes(t *testing.T) {
	r := newEngine(MaxBodyBytes(8))
	r.POST("/", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			AbortBodyError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	if code := serve(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("tiny"))).Code; code != http.StatusOK {
		t.Fatalf("small body: expected 200, got %d", code)
	}
	if code := serve(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 64)))).Code; code != http.StatusRequestEntityTooLarge {
		t.Fatalf("large body: expected 413, got %d", code)
	}
}

func TestHTTPMetricsUsesRouteTemplate(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	r := newEngine(m.Handler())
	r.GET("/orders/:number", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, httptest.NewRequest(http.MethodGet, "/orders/A1", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/orders/A2", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/elsewhere", nil))

	if got := testutil.ToFloat64(m.requests.WithLabelValues("/orders/:number", http.MethodGet, "200")); got != 2 {
		t.Fatalf("expected 2 requests on the template, got %v", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("unmatched", http.MethodGet, "404")); got != 1 {
		t.Fatalf("expected 1 unmatched request, got %v", got)
	}
}
