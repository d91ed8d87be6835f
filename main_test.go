package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"yojiquiz/game"
)

func TestCSRFProtection(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)
	r := CreateServer([]string{"http://localhost:3000", "https://yoji.example.com"})

	r.GET("/testroute", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "success")
	})

	type testCase struct {
		name           string
		method         string
		path           string
		origin         string
		expectedStatus int
		expectedBody   string
	}

	tests := []testCase{
		{
			name:           "Health check should be public",
			method:         http.MethodGet,
			path:           "/health",
			origin:         "",
			expectedStatus: http.StatusOK,
			expectedBody:   "healthy",
		},
		{
			name:           "Allowed origin should pass",
			method:         http.MethodGet,
			path:           "/testroute",
			origin:         "https://yoji.example.com",
			expectedStatus: http.StatusOK,
			expectedBody:   "success",
		},
		{
			name:           "Disallowed origin should be forbidden",
			method:         http.MethodGet,
			path:           "/testroute",
			origin:         "http://evil.com",
			expectedStatus: http.StatusForbidden,
			expectedBody:   "forbidden origin",
		},
		{
			name:           "Missing origin should be forbidden",
			method:         http.MethodGet,
			path:           "/testroute",
			expectedStatus: http.StatusForbidden,
			expectedBody:   "forbidden origin",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.origin != "" {
				req.Header.Add("Origin", tc.origin)
			}
			res := httptest.NewRecorder()

			r.ServeHTTP(res, req)

			assert.Equal(t, tc.expectedStatus, res.Code)
			if tc.expectedBody != "" {
				assert.Equal(t, tc.expectedBody, res.Body.String())
			}
		})
	}
}

func TestCORSHeaders(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	allowedOrigins := []string{"http://localhost:3000", "https://yoji.example.com"}

	tests := []struct {
		name        string
		method      string
		reqHeaders  map[string]string
		wantCode    int
		wantHeaders map[string]string
	}{
		{
			name:   "preflight request from allowed origin",
			method: http.MethodOptions,
			reqHeaders: map[string]string{
				"Origin":                        "http://localhost:3000",
				"Access-Control-Request-Method": "GET",
			},
			wantCode: http.StatusNoContent,
			wantHeaders: map[string]string{
				"Access-Control-Allow-Origin":      "http://localhost:3000",
				"Access-Control-Allow-Methods":     "GET,OPTIONS",
				"Access-Control-Allow-Credentials": "true",
			},
		},
		{
			name:   "preflight from forbidden origin",
			method: http.MethodOptions,
			reqHeaders: map[string]string{
				"Origin":                        "http://evil.com",
				"Access-Control-Request-Method": "GET",
			},
			wantCode: http.StatusForbidden,
			wantHeaders: map[string]string{
				"Access-Control-Allow-Origin": "",
			},
		},
		{
			name:       "preflight without origin header",
			method:     http.MethodOptions,
			reqHeaders: nil,
			wantCode:   http.StatusForbidden,
		},
		{
			name:   "actual GET request with allowed origin",
			method: http.MethodGet,
			reqHeaders: map[string]string{
				"Origin": "https://yoji.example.com",
			},
			wantCode: http.StatusOK,
			wantHeaders: map[string]string{
				"Access-Control-Allow-Origin":      "https://yoji.example.com",
				"Access-Control-Allow-Credentials": "true",
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := CreateServer(allowedOrigins)
			r.GET("/test", func(c *gin.Context) { c.Status(200) })

			req := httptest.NewRequest(tc.method, "/test", nil)
			for k, v := range tc.reqHeaders {
				req.Header.Set(k, v)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.wantCode, w.Code)
			for k, v := range tc.wantHeaders {
				assert.Equal(t, v, w.Header().Get(k), "Header %s mismatch", k)
			}
		})
	}
}

func TestRegisterRoutes(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	r := CreateServer([]string{"http://localhost:3000"})
	RegisterRoutes(r, &game.GameHandler{})

	registered := map[string]bool{}
	for _, route := range r.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	for _, want := range []string{
		"GET /health",
		"GET /ws",
		"GET /rooms/:code",
		"GET /rooms/:code/watch",
		"GET /rooms/:code/results",
	} {
		assert.True(t, registered[want], "route %s missing", want)
	}
}
