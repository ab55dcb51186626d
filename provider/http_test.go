package provider

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

func TestHTTPProvider_Open(t *testing.T) {
	content := bytes.Repeat([]byte("payload "), 512)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(content)))
		w.Write(content)
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.Client())
	rc, size, err := p.Open(context.Background(), srv.URL+"/obj")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rc.Close()

	if size != int64(len(content)) {
		t.Errorf("expected advertised size %d, got %d", len(content), size)
	}

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, content) {
		t.Error("body does not match the served content")
	}
}

func TestHTTPProvider_OpenErrorPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "signed url expired", http.StatusForbidden)
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.Client())
	_, _, err := p.Open(context.Background(), srv.URL+"/obj")
	if err == nil {
		t.Fatal("expected an error for a 403 response")
	}
	if !strings.Contains(err.Error(), "signed url expired") {
		t.Errorf("expected the server payload in the error, got %q", err)
	}
	if !strings.Contains(err.Error(), "403") {
		t.Errorf("expected the status in the error, got %q", err)
	}
}

func TestHTTPProvider_Create(t *testing.T) {
	var mu sync.Mutex
	var received []byte
	var gotLength int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read failed: %v", err)
		}
		mu.Lock()
		received = body
		gotLength = r.ContentLength
		mu.Unlock()
	}))
	defer srv.Close()

	content := []byte("uploaded bytes")
	p := NewHTTPProvider(srv.Client())

	wc, err := p.Create(context.Background(), srv.URL+"/obj", int64(len(content)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := wc.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := wc.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if !bytes.Equal(received, content) {
		t.Errorf("server received %q, want %q", received, content)
	}
	if gotLength != int64(len(content)) {
		t.Errorf("expected Content-Length %d, got %d", len(content), gotLength)
	}
}

func TestHTTPProvider_CreateRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.Client())
	wc, err := p.Create(context.Background(), srv.URL+"/obj", 4)
	if err != nil {
		t.Fatal(err)
	}
	wc.Write([]byte("data"))

	err = wc.Close()
	if err == nil {
		t.Fatal("expected the rejection to surface on close")
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("expected the server payload in the error, got %q", err)
	}
}
