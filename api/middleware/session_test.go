package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/angelmondragon/storefront/pkg/auth"
	"github.com/angelmondragon/storefront/pkg/config"
)

func testSessionConfig() config.SessionConfig {
	return config.SessionConfig{
		Secret:     "secret",
		Issuer:     "storefront",
		TTL:        time.Hour,
		CookieName: "sf_session",
	}
}

func captureSession(captured *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = SessionIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestSessionIssuesTokenWhenMissing(t *testing.T) {
	cfg := testSessionConfig()
	var sid string
	handler := Session(cfg, nil)(captureSession(&sid))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if sid == "" {
		t.Fatal("expected session id in context")
	}
	token := resp.Header().Get(SessionHeader)
	if token == "" {
		t.Fatal("expected session header on response")
	}
	claims, err := auth.ParseSessionToken(cfg, token)
	if err != nil {
		t.Fatalf("issued token should parse: %v", err)
	}
	if claims.SessionID != sid {
		t.Fatalf("expected sid %s got %s", sid, claims.SessionID)
	}

	cookies := resp.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "sf_session" || !cookies[0].HttpOnly {
		t.Fatalf("unexpected cookies %+v", cookies)
	}
}

func TestSessionMarksIssuedSessions(t *testing.T) {
	cfg := testSessionConfig()
	var issued bool
	handler := Session(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		issued = SessionIssuedOnRequest(r.Context())
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if !issued {
		t.Fatal("minted session should be flagged")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(SessionHeader, resp.Header().Get(SessionHeader))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if issued {
		t.Fatal("returning session must not be flagged")
	}
}

func TestSessionReusesValidCookie(t *testing.T) {
	cfg := testSessionConfig()
	token, err := auth.MintSessionToken(cfg, time.Now(), "existing-session")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	var sid string
	handler := Session(cfg, nil)(captureSession(&sid))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sf_session", Value: token})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if sid != "existing-session" {
		t.Fatalf("expected existing session, got %q", sid)
	}
	if resp.Header().Get(SessionHeader) != "" {
		t.Fatal("valid session must not be reissued")
	}
}

func TestSessionPrefersHeader(t *testing.T) {
	cfg := testSessionConfig()
	headerToken, _ := auth.MintSessionToken(cfg, time.Now(), "from-header")
	cookieToken, _ := auth.MintSessionToken(cfg, time.Now(), "from-cookie")

	var sid string
	handler := Session(cfg, nil)(captureSession(&sid))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(SessionHeader, headerToken)
	req.AddCookie(&http.Cookie{Name: "sf_session", Value: cookieToken})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if sid != "from-header" {
		t.Fatalf("expected header session, got %q", sid)
	}
}

func TestSessionReplacesExpiredToken(t *testing.T) {
	cfg := testSessionConfig()
	expired, _ := auth.MintSessionToken(cfg, time.Now().Add(-2*time.Hour), "stale")

	var sid string
	handler := Session(cfg, nil)(captureSession(&sid))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(SessionHeader, expired)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if sid == "" || sid == "stale" {
		t.Fatalf("expected a fresh session, got %q", sid)
	}
	if resp.Header().Get(SessionHeader) == "" {
		t.Fatal("expected reissued token")
	}
}
