// Package media holds the URL and file-name helpers shared by the
// generation pipelines: rewriting upstream poster URLs to the public asset
// host, mapping between extensions and MIME types, and building proxy URLs.
package media

import (
	"net/url"
	"path"
	"strings"

	"github.com/fleveque/thumbnail-service/internal/model"
)

const (
	// DefaultAssetPrefix is where the content API exposes public assets.
	DefaultAssetPrefix = "/assets/public/"

	// DefaultExtension is returned when a path carries no usable extension.
	DefaultExtension = "jpg"
)

// FormatStorageURL rewrites an upstream storage URL onto the public asset
// prefix. The first path segment (the storage container) is dropped, the
// scheme is forced to https and the host is kept:
//
//	http://x.com/content/y/z/thumb.png -> https://x.com/assets/public/y/z/thumb.png
func FormatStorageURL(raw, prefix string) string {
	if prefix == "" {
		prefix = DefaultAssetPrefix
	}

	host := ""
	p := raw
	if u, err := url.Parse(raw); err == nil {
		host = u.Host
		p = u.Path
	}

	parts := strings.Split(p, "/")
	rest := ""
	if len(parts) > 2 {
		rest = strings.Join(parts[2:], "/")
	}
	return "https://" + host + prefix + rest
}

// FileExtension returns the lower-cased extension of the path component of
// a URL or file path, without the dot. Defaults to DefaultExtension.
func FileExtension(raw string) string {
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	}
	ext := strings.TrimPrefix(path.Ext(p), ".")
	if ext == "" {
		return DefaultExtension
	}
	return strings.ToLower(ext)
}

// FileMimeType infers the MIME type from a URL or path extension.
// Anything that is not png falls back to image/jpeg.
func FileMimeType(raw string) model.MimeType {
	switch FileExtension(raw) {
	case "png":
		return model.MimePNG
	default:
		return model.MimeJPEG
	}
}

// ExtensionFromMimeType maps a MIME type string to an extension. Unknown
// types fall back to png.
func ExtensionFromMimeType(mime string) string {
	return model.MimeType(mime).Extension()
}

// FileStem returns the base name of the URL path without its extension.
func FileStem(raw string) string {
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	}
	base := path.Base(p)
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}

// ProxyURL joins the API host, proxy path, content id and file name into the
// URL clients use to fetch a stored image. Separators are never duplicated.
func ProxyURL(apiHost, proxyPath, contentID, filename string) (string, error) {
	return url.JoinPath(apiHost, proxyPath, contentID, filename)
}

// ObjectPath is the object-store key for a generated file.
func ObjectPath(folder, contentID, filename string) string {
	return path.Join(folder, contentID, filename)
}
