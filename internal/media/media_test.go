package media

import (
	"testing"

	"github.com/fleveque/thumbnail-service/internal/model"
)

func TestFormatStorageURL(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		prefix string
		want   string
	}{
		{
			name:  "multiple segments",
			input: "https://example.com/storage/abc/image.jpg",
			want:  "https://example.com/assets/public/abc/image.jpg",
		},
		{
			name:  "http is upgraded",
			input: "http://mydomain.com/media/uploads/img.png",
			want:  "https://mydomain.com/assets/public/uploads/img.png",
		},
		{
			name:  "poster thumbnail",
			input: "http://x.com/content/y/z/thumb.png",
			want:  "https://x.com/assets/public/y/z/thumb.png",
		},
		{
			name:   "custom prefix",
			input:  "http://example.com/some/path/image.jpg",
			prefix: "/static/",
			want:   "https://example.com/static/path/image.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatStorageURL(tt.input, tt.prefix); got != tt.want {
				t.Errorf("FormatStorageURL(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFileExtension(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"https://example.com/path/to/image.JPG", "jpg"},
		{"https://example.com/image.png", "png"},
		{"https://example.com/image", "jpg"},
		{"", "jpg"},
		{"/local/path/to/file.jpeg", "jpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := FileExtension(tt.input); got != tt.want {
				t.Errorf("FileExtension(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFileMimeType(t *testing.T) {
	tests := []struct {
		input string
		want  model.MimeType
	}{
		{"https://example.com/image.jpg", model.MimeJPEG},
		{"https://example.com/image.png", model.MimePNG},
		{"https://example.com/image", model.MimeJPEG},
		{"", model.MimeJPEG},
		{"http://example.com/document.gif", model.MimeJPEG},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := FileMimeType(tt.input); got != tt.want {
				t.Errorf("FileMimeType(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtensionFromMimeType(t *testing.T) {
	tests := map[string]string{
		"image/png":                "png",
		"image/jpeg":               "jpg",
		"application/octet-stream": "png",
		"text/plain":               "png",
	}
	for mime, want := range tests {
		if got := ExtensionFromMimeType(mime); got != want {
			t.Errorf("ExtensionFromMimeType(%q) = %q, want %q", mime, got, want)
		}
	}
}

func TestFileStem(t *testing.T) {
	tests := map[string]string{
		"https://x.com/assets/public/y/z/thumb.png": "thumb",
		"https://x.com/a/b.tar.gz":                  "b.tar",
		"https://x.com/":                            "",
		"":                                          "",
	}
	for input, want := range tests {
		if got := FileStem(input); got != want {
			t.Errorf("FileStem(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestProxyURL(t *testing.T) {
	tests := []struct {
		name      string
		host      string
		proxyPath string
		want      string
	}{
		{"plain", "https://api.example.com", "/thumbnails/generate/", "https://api.example.com/thumbnails/generate/do_123/thumb_0.png"},
		{"trailing slash host", "https://api.example.com/", "thumbnails/generate", "https://api.example.com/thumbnails/generate/do_123/thumb_0.png"},
		{"double slashes", "https://api.example.com/", "//thumbnails//generate//", "https://api.example.com/thumbnails/generate/do_123/thumb_0.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ProxyURL(tt.host, tt.proxyPath, "do_123", "thumb_0.png")
			if err != nil {
				t.Fatalf("ProxyURL: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestObjectPath(t *testing.T) {
	if got := ObjectPath("thumbnails", "do_123", "thumb_1.png"); got != "thumbnails/do_123/thumb_1.png" {
		t.Errorf("got %q", got)
	}
}
