package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/staffstore-backend/internal/admin"
	"github.com/angelmondragon/staffstore-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/staffstore-backend/pkg/errors"
	"github.com/angelmondragon/staffstore-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuthorizer struct {
	accept string
	calls  int
}

func (s *stubAuthorizer) Authorize(ctx context.Context, bearer string) (*admin.Principal, error) {
	s.calls++
	if bearer != s.accept {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Unauthorized")
	}
	return &admin.Principal{Subject: "admin", Method: admin.MethodToken}, nil
}

func TestAdminAuth(t *testing.T) {
	authz := &stubAuthorizer{accept: "good"}
	var subject, method string
	handler := AdminAuth(authz, logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject = AdminSubjectFromContext(r.Context())
		method = AuthMethodFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "bearer good", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/products", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			require.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusUnauthorized {
				assert.Equal(t, string(pkgerrors.CodeUnauthorized), decodeErrorCode(t, rec.Body.Bytes()))
			}
		})
	}
	assert.Equal(t, "admin", subject)
	assert.Equal(t, admin.MethodToken, method)
	assert.Equal(t, 2, authz.calls)
}

func TestRecovererWritesInternalError(t *testing.T) {
	handler := Recoverer(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(errors.New("boom"))
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"ok":false,"error":"Internal Server Error","code":"INTERNAL_ERROR"}`, rec.Body.String())
	assert.Equal(t, "close", rec.Header().Get("Connection"))
}

func TestRecovererRepanicsOnAbort(t *testing.T) {
	handler := Recoverer(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestRequestIDEchoesOrGenerates(t *testing.T) {
	var seen string
	handler := RequestID(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
	assert.Equal(t, "abc-123", seen)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, rec.Header().Get(requestIDHeader), 36)
	assert.Equal(t, rec.Header().Get(requestIDHeader), seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "bad id<script>")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Len(t, rec.Header().Get(requestIDHeader), 36)
}

func TestCORS(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	t.Run("allow all", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/products", nil)
		req.Header.Set("Origin", "http://anything.test")
		rec := httptest.NewRecorder()
		CORS(config.CORSConfig{})(ok).ServeHTTP(rec, req)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("configured origins", func(t *testing.T) {
		cfg := config.CORSConfig{AllowedOrigins: []string{"http://shop.test"}}

		req := httptest.NewRequest(http.MethodGet, "/products", nil)
		req.Header.Set("Origin", "http://shop.test")
		rec := httptest.NewRecorder()
		CORS(cfg)(ok).ServeHTTP(rec, req)
		assert.Equal(t, "http://shop.test", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

		req = httptest.NewRequest(http.MethodGet, "/products", nil)
		req.Header.Set("Origin", "http://evil.test")
		rec = httptest.NewRecorder()
		CORS(cfg)(ok).ServeHTTP(rec, req)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}
