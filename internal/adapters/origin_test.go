package adapters

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func requestWithOrigin(origin string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	if origin != "" {
		r.Header.Set("Origin", origin)
	}
	return r
}

func TestOriginCheckerAllowList(t *testing.T) {
	check := newOriginChecker([]string{"https://app.example.com", "http://localhost:3000"})

	cases := []struct {
		origin string
		want   bool
	}{
		{"https://app.example.com", true},
		{"HTTPS://APP.EXAMPLE.COM", true},
		{"http://localhost:3000", true},
		{"https://evil.example.com", false},
		{"http://app.example.com", false}, // scheme matters
		{"not a url", false},
		{"", true}, // non-browser clients carry no Origin header
	}
	for _, tc := range cases {
		if got := check(requestWithOrigin(tc.origin)); got != tc.want {
			t.Errorf("origin %q: got %v, want %v", tc.origin, got, tc.want)
		}
	}
}

func TestOriginCheckerWildcard(t *testing.T) {
	check := newOriginChecker([]string{"*"})
	for _, origin := range []string{"https://anywhere.example", "http://localhost:1234", ""} {
		if !check(requestWithOrigin(origin)) {
			t.Errorf("wildcard should admit origin %q", origin)
		}
	}
}

func TestOriginCheckerIgnoresInvalidConfigEntries(t *testing.T) {
	check := newOriginChecker([]string{"   ", "://broken", "https://good.example"})
	if !check(requestWithOrigin("https://good.example")) {
		t.Error("valid configured origin should be admitted")
	}
	if check(requestWithOrigin("https://other.example")) {
		t.Error("unlisted origin should be refused")
	}
}
