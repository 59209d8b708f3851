package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/fleveque/thumbnail-service/internal/model"
)

func TestFetchContent(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result":{"content":{"identifier":"do_123","name":"Intro","posterImage":"http://x.com/content/y/z/thumb.png"}}}`))
	}))
	defer srv.Close()

	client := NewContentClient(srv.URL, "", time.Second, zap.NewNop())
	ref, err := client.FetchContent(context.Background(), "do_123")
	if err != nil {
		t.Fatalf("FetchContent: %v", err)
	}

	if gotPath != "/api/content/v1/read/do_123" || gotQuery != "mode=edit" {
		t.Errorf("unexpected request %s?%s", gotPath, gotQuery)
	}
	if ref.ID != "do_123" || ref.Name != "Intro" {
		t.Errorf("unexpected ref %+v", ref)
	}

	poster, err := client.PosterURL(ref)
	if err != nil {
		t.Fatalf("PosterURL: %v", err)
	}
	if poster != "https://x.com/assets/public/y/z/thumb.png" {
		t.Errorf("unexpected poster URL %s", poster)
	}
}

func TestFetchContent_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"not found", http.StatusNotFound, `{}`},
		{"server error", http.StatusInternalServerError, `oops`},
		{"malformed json", http.StatusOK, `{"result":`},
		{"missing content", http.StatusOK, `{"result":{}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewContentClient(srv.URL, "", time.Second, zap.NewNop())
			_, err := client.FetchContent(context.Background(), "do_1")
			if !errors.Is(err, model.ErrUpstream) {
				t.Errorf("expected ErrUpstream, got %v", err)
			}
		})
	}
}

func TestFetchContent_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewContentClient(srv.URL, "", time.Second, zap.NewNop())
	_, err := client.FetchContent(context.Background(), "do_1")
	if !errors.Is(err, model.ErrTransport) {
		t.Errorf("expected ErrTransport, got %v", err)
	}
}

func TestPosterURL_Missing(t *testing.T) {
	client := NewContentClient("http://example.com", "", time.Second, zap.NewNop())
	_, err := client.PosterURL(&model.ContentRef{ID: "do_1"})
	if !errors.Is(err, ErrMissingPoster) || !errors.Is(err, model.ErrUpstream) {
		t.Errorf("expected ErrMissingPoster wrapping ErrUpstream, got %v", err)
	}
}

func TestFetchCourse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/course/v1/hierarchy/do_9" || r.URL.Query().Get("hierarchyType") != "detail" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"result":{"content":{
			"identifier":"do_9","name":"Ethics","description":"Public ethics",
			"children":[
				{"name":"Module 1","children":[{"name":"Nested"}]},
				{"identifier":"no-name"},
				{"name":"Module 2"}
			]}}}`))
	}))
	defer srv.Close()

	client := NewContentClient(srv.URL+"/", "", time.Second, zap.NewNop())
	ref, err := client.FetchCourse(context.Background(), "do_9")
	if err != nil {
		t.Fatalf("FetchCourse: %v", err)
	}

	if ref.Name != "Ethics" || ref.Description != "Public ethics" {
		t.Errorf("unexpected ref %+v", ref)
	}
	if got := FormatTOC(ref.TOC); got != "  - Module 1\n  - Module 2\n" {
		t.Errorf("unexpected TOC %q", got)
	}
}

func TestDownload(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		wantMime    model.MimeType
		wantErr     error
	}{
		{"png", http.StatusOK, "image/png", model.MimePNG, nil},
		{"jpeg with params", http.StatusOK, "image/jpeg; charset=binary", model.MimeJPEG, nil},
		{"gif rejected", http.StatusOK, "image/gif", "", model.ErrUnsupportedMediaType},
		{"missing type", http.StatusOK, "", "", model.ErrUnsupportedMediaType},
		{"not found", http.StatusNotFound, "image/png", "", model.ErrTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(tt.status)
				w.Write([]byte("img-bytes"))
			}))
			defer srv.Close()

			fetcher := NewThumbnailFetcher(time.Second, zap.NewNop())
			asset, err := fetcher.Download(context.Background(), srv.URL+"/thumb.png")

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Download: %v", err)
			}
			if asset.MimeType != tt.wantMime || string(asset.Data) != "img-bytes" {
				t.Errorf("unexpected asset %+v", asset)
			}
		})
	}
}

func TestDownload_UnsupportedMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/webp")
	}))
	defer srv.Close()

	_, err := NewThumbnailFetcher(time.Second, zap.NewNop()).Download(context.Background(), srv.URL)
	if err == nil || !strings.Contains(err.Error(), "image/png, image/jpeg") {
		t.Errorf("expected whitelist in message, got %v", err)
	}
}

func TestDownload_OversizedBody(t *testing.T) {
	big := make([]byte, maxBodyBytes+2<<20)

	tests := []struct {
		name          string
		contentLength bool
	}{
		{"declared length", true},
		{"chunked", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "image/png")
				if tt.contentLength {
					w.Header().Set("Content-Length", strconv.Itoa(len(big)))
				}
				w.WriteHeader(http.StatusOK)
				w.(http.Flusher).Flush()
				w.Write(big)
			}))
			defer srv.Close()

			asset, err := NewThumbnailFetcher(5*time.Second, zap.NewNop()).Download(context.Background(), srv.URL)
			if !errors.Is(err, model.ErrTransport) {
				t.Fatalf("expected ErrTransport, got asset=%v err=%v", asset != nil, err)
			}
		})
	}
}

func TestDownload_AtLimit(t *testing.T) {
	body := make([]byte, maxBodyBytes)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(body)
	}))
	defer srv.Close()

	asset, err := NewThumbnailFetcher(5*time.Second, zap.NewNop()).Download(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if len(asset.Data) != maxBodyBytes {
		t.Errorf("expected %d bytes, got %d", maxBodyBytes, len(asset.Data))
	}
}
