package imagecheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCheck_ValidImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("method = %s, want HEAD", r.Method)
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Content-Length", "12345")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	v := New(srv.Client(), 2*time.Second)
	meta := v.Check(context.Background(), srv.URL+"/mug.jpg")

	if !meta.Valid {
		t.Fatal("Valid = false, want true")
	}
	if meta.ContentType != "image/jpeg" {
		t.Errorf("ContentType = %q, want image/jpeg", meta.ContentType)
	}
	if meta.ByteSize != 12345 {
		t.Errorf("ByteSize = %d, want 12345", meta.ByteSize)
	}
}

func TestCheck_NonHTTPReference(t *testing.T) {
	v := New(nil, time.Second)
	meta := v.Check(context.Background(), "not-a-url")

	if meta.Valid {
		t.Error("Valid = true, want false")
	}
	if meta.URL != "not-a-url" {
		t.Errorf("URL = %q", meta.URL)
	}
}

func TestCheck_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	v := New(srv.Client(), 2*time.Second)
	if meta := v.Check(context.Background(), srv.URL+"/missing.jpg"); meta.Valid {
		t.Error("Valid = true, want false")
	}
}

func TestCheck_UnreachableHostNeverRaises(t *testing.T) {
	v := New(nil, time.Second)

	start := time.Now()
	meta := v.Check(context.Background(), "http://localhost:1/doesnotexist")
	elapsed := time.Since(start)

	if meta.Valid {
		t.Error("Valid = true, want false")
	}
	if elapsed > 3*time.Second {
		t.Errorf("probe took %v, want bounded by timeout", elapsed)
	}
}

func TestCheck_TimeoutBounded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer srv.Close()

	v := New(srv.Client(), 100*time.Millisecond)

	start := time.Now()
	meta := v.Check(context.Background(), srv.URL+"/slow.jpg")
	if meta.Valid {
		t.Error("Valid = true, want false")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("probe took %v, want ~100ms", elapsed)
	}
}

func TestCheck_MissingOptionalHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	v := New(srv.Client(), 2*time.Second)
	meta := v.Check(context.Background(), srv.URL+"/img")

	if !meta.Valid {
		t.Fatal("Valid = false, want true")
	}
	if meta.ByteSize != 0 {
		t.Errorf("ByteSize = %d, want 0 when header absent", meta.ByteSize)
	}
}
