package middleware

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/pkg/requestcontext"
	"rollcall/pkg/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRequestID(t *testing.T) {
	t.Run("honors inbound header", func(t *testing.T) {
		var seen string
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = requestcontext.RequestID(r.Context())
		}))

		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/attendance", nil)
		req.Header.Set("X-Request-ID", "req-123")
		rr := testutil.DoRequest(h, req)

		assert.Equal(t, "req-123", seen)
		assert.Equal(t, "req-123", rr.Header().Get("X-Request-ID"))
	})

	t.Run("generates when absent", func(t *testing.T) {
		var seen string
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = requestcontext.RequestID(r.Context())
		}))

		rr := testutil.DoRequest(h, testutil.NewJSONRequest(t, http.MethodGet, "/", nil))
		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, rr.Header().Get("X-Request-ID"))
	})
}

func TestRecovery(t *testing.T) {
	h := Recovery(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(errors.New("boom"))
	}))

	rr := testutil.DoRequest(h, testutil.NewJSONRequest(t, http.MethodGet, "/", nil))
	testutil.AssertStatus(t, rr, http.StatusInternalServerError)
}

func TestContentTypeJSON(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("rejects non-json post body", func(t *testing.T) {
		req := testutil.NewRequestWithBody(t, http.MethodPost, "/api/attendance", "name=x")
		req.Header.Set("Content-Type", "text/plain")
		rr := testutil.DoRequest(ContentTypeJSON(ok), req)
		testutil.AssertStatus(t, rr, http.StatusUnsupportedMediaType)
	})

	t.Run("accepts json post", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/attendance", map[string]string{"a": "b"})
		rr := testutil.DoRequest(ContentTypeJSON(ok), req)
		testutil.AssertStatus(t, rr, http.StatusNoContent)
	})

	t.Run("ignores get requests", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/attendance/CSE-3A", nil)
		req.Header.Set("Content-Type", "text/plain")
		rr := testutil.DoRequest(ContentTypeJSON(ok), req)
		testutil.AssertStatus(t, rr, http.StatusNoContent)
	})
}

func TestClientMetadata(t *testing.T) {
	var ip, ua string
	h := ClientMetadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip = requestcontext.ClientIP(r.Context())
		ua = requestcontext.UserAgent(r.Context())
	}))

	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/attendance", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (Linux; Android 14)")
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	testutil.DoRequest(h, req)

	assert.Equal(t, "203.0.113.7", ip, "first forwarded address is the client")
	assert.Equal(t, "Mozilla/5.0 (Linux; Android 14)", ua)
}

func TestClientIPFromRequest(t *testing.T) {
	cases := []struct {
		name   string
		setup  func(r *http.Request)
		expect string
	}{
		{"x-forwarded-for single", func(r *http.Request) { r.Header.Set("X-Forwarded-For", "203.0.113.7") }, "203.0.113.7"},
		{"x-real-ip", func(r *http.Request) { r.Header.Set("X-Real-IP", "203.0.113.8") }, "203.0.113.8"},
		{"remote addr ipv4", func(r *http.Request) { r.RemoteAddr = "203.0.113.9:4411" }, "203.0.113.9"},
		{"remote addr ipv6", func(r *http.Request) { r.RemoteAddr = "[2001:db8::1]:4411" }, "2001:db8::1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tc.setup(req)
			assert.Equal(t, tc.expect, ClientIPFromRequest(req))
		})
	}
}

func TestDevice(t *testing.T) {
	t.Run("header takes precedence over cookie", func(t *testing.T) {
		var deviceID string
		h := Device(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			deviceID = requestcontext.DeviceID(r.Context())
		}))

		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/attendance", nil)
		req.Header.Set("X-Device-ID", "from-header")
		req.AddCookie(&http.Cookie{Name: "device_id", Value: "from-cookie"})
		testutil.DoRequest(h, req)

		assert.Equal(t, "from-header", deviceID)
	})

	t.Run("anonymous clients get no fingerprint", func(t *testing.T) {
		var fingerprint string
		h := Device(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fingerprint = requestcontext.DeviceFingerprint(r.Context())
		}))

		// Two students on identical phone models must not share an identity.
		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/attendance", nil)
		req.Header.Set("User-Agent", "Mozilla/5.0 (Linux; Android 14)")
		testutil.DoRequest(h, req)

		assert.Empty(t, fingerprint)
		assert.Empty(t, Fingerprint("", "Mozilla/5.0 (Linux; Android 14)"))
	})

	t.Run("fingerprint is stable across browser versions", func(t *testing.T) {
		a := Fingerprint("dev-1", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
		b := Fingerprint("dev-1", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36")
		assert.Equal(t, a, b)

		other := Fingerprint("dev-2", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
		assert.NotEqual(t, a, other)
	})
}

func TestRequireAuth(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	validator := validatorFunc(func(token string) (*Claims, error) {
		if token == "good" {
			return &Claims{Actor: "teacher-1", Role: "teacher"}, nil
		}
		return nil, errors.New("bad token")
	})
	h := RequireAuth(validator, discardLogger())(next)

	t.Run("missing token", func(t *testing.T) {
		rr := testutil.DoRequest(h, httptest.NewRequest(http.MethodGet, "/", nil))
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer bad")
		rr := testutil.DoRequest(h, req)
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})

	t.Run("valid token sets actor", func(t *testing.T) {
		var actor string
		inner := RequireAuth(validator, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor = requestcontext.Actor(r.Context())
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer good")
		rr := testutil.DoRequest(inner, req)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "teacher-1", actor)
	})
}

type validatorFunc func(token string) (*Claims, error)

func (f validatorFunc) ValidateToken(token string) (*Claims, error) {
	return f(token)
}
