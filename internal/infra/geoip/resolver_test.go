package geoip

import (
	"errors"
	"testing"
)

func TestNilResolver(t *testing.T) {
	r, err := Open("")
	if err != nil {
		t.Fatalf("Open(\"\") error = %v", err)
	}
	if r != nil {
		t.Fatalf("Open(\"\") = %v, want nil", r)
	}
	if _, err := r.Country("8.8.8.8"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Country() error = %v, want ErrUnavailable", err)
	}
	if r.Lookup() != nil {
		t.Fatal("Lookup() on nil resolver should be nil")
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open("/nonexistent/GeoLite2-Country.mmdb"); err == nil {
		t.Fatal("Open() error = nil, want error for missing database")
	}
}
