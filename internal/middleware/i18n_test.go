package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestLocale(t *testing.T) {
	fromMalaysia := func(string) (string, error) { return "my", nil }
	fromIndonesia := func(string) (string, error) { return "id", nil }
	failing := func(string) (string, error) { return "", errors.New("no database") }

	tests := []struct {
		name     string
		headers  map[string]string
		lookup   CountryLookup
		fallback string
		want     string
	}{
		{name: "x-locale wins", headers: map[string]string{"X-Locale": "ID", "Accept-Language": "en-US"}, want: "id"},
		{name: "x-locale unknown language", headers: map[string]string{"X-Locale": "de-DE"}, want: "en"},
		{name: "x-locale garbage", headers: map[string]string{"X-Locale": "!!"}, want: "en"},
		{name: "accept-language english", headers: map[string]string{"Accept-Language": "en-US,en;q=0.9"}, want: "en"},
		{name: "accept-language indonesian", headers: map[string]string{"Accept-Language": "id-ID,en;q=0.8"}, want: "id"},
		{name: "accept-language weighted", headers: map[string]string{"Accept-Language": "fr-CH, id;q=0.9, en;q=0.5"}, want: "id"},
		{name: "unsupported accept-language uses country", headers: map[string]string{"Accept-Language": "fr", "CF-IPCountry": "id"}, want: "id"},
		{name: "country header", headers: map[string]string{"X-Country-Code": "ID"}, fallback: "en", want: "id"},
		{name: "geoip indonesia", lookup: fromIndonesia, fallback: "en", want: "id"},
		{name: "geoip elsewhere", lookup: fromMalaysia, fallback: "id", want: "en"},
		{name: "geoip failure uses fallback", lookup: failing, fallback: "id", want: "id"},
		{name: "fallback", fallback: "en", want: "en"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			if got := requestLocale(req, tc.lookup, tc.fallback); got != tc.want {
				t.Fatalf("requestLocale() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRequestCountryUsesClientIP(t *testing.T) {
	var seen string
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.4:80"
	got := requestCountry(req, func(ip string) (string, error) {
		seen = ip
		return "sg", nil
	})
	if got != "SG" || seen != "203.0.113.4" {
		t.Fatalf("requestCountry() = %q looked up %q, want SG for 203.0.113.4", got, seen)
	}
}

func TestClientIP(t *testing.T) {
	tests := map[string]string{
		"198.51.100.10:1234": "198.51.100.10",
		"[2001:db8::2]:443":  "2001:db8::2",
		"203.0.113.1":        "203.0.113.1",
	}
	for remote, want := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		if got := clientIP(req); got != want {
			t.Fatalf("clientIP(%q) = %q, want %q", remote, got, want)
		}
	}
}

func TestLocaleFromContext(t *testing.T) {
	if got := LocaleFromContext(context.Background()); got != "en" {
		t.Fatalf("LocaleFromContext() default = %q, want %q", got, "en")
	}
}

func TestI18NMiddleware(t *testing.T) {
	var got string
	h := I18N("id-ID", nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = LocaleFromContext(r.Context())
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if got != "id" {
		t.Fatalf("locale = %q, want %q", got, "id")
	}
	if rec.Header().Get("Content-Language") != "id" {
		t.Fatalf("Content-Language = %q, want id", rec.Header().Get("Content-Language"))
	}
}
