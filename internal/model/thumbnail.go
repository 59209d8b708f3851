// Package model defines the core data types for the thumbnail service.
// Struct tags (the `json:"..."` and `db:"..."` annotations) tell
// serialization libraries how to map fields.
package model

import (
	"strings"
	"time"
)

// MimeType is the media type of an image. Only PNG and JPEG are accepted.
type MimeType string

const (
	MimePNG  MimeType = "image/png"
	MimeJPEG MimeType = "image/jpeg"
)

// SupportedMimeTypes is the ordered whitelist used in validation messages.
var SupportedMimeTypes = []MimeType{MimePNG, MimeJPEG}

// Supported reports whether m is in the whitelist.
func (m MimeType) Supported() bool {
	for _, s := range SupportedMimeTypes {
		if m == s {
			return true
		}
	}
	return false
}

// Extension maps the MIME type to a file extension. Unknown types fall back to png.
func (m MimeType) Extension() string {
	if m == MimeJPEG {
		return "jpg"
	}
	return "png"
}

// SupportedMimeList renders the whitelist as "image/png, image/jpeg".
func SupportedMimeList() string {
	names := make([]string, len(SupportedMimeTypes))
	for i, m := range SupportedMimeTypes {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

// ContentRef is what the content API tells us about a course or content item.
// It only lives for the duration of one request.
type ContentRef struct {
	ID          string
	Name        string
	Description string
	TOC         []string
	PosterImage string
}

// ImageAsset is raw image bytes plus their media type.
type ImageAsset struct {
	MimeType MimeType
	Data     []byte
}

// Extension returns the file extension implied by the asset's MIME type.
func (a ImageAsset) Extension() string {
	return a.MimeType.Extension()
}

// LogoPosition is a bounding box reported by the logo detector.
type LogoPosition struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// LogoEntry is a single detected logo.
type LogoEntry struct {
	LogoName        string       `json:"logo_name"`
	Position        LogoPosition `json:"position"`
	ConfidenceScore float64      `json:"confidence_score"`
}

// LogoWarning is shown to users whenever a logo is found in the source thumbnail.
const LogoWarning = "This image contains a logo. AI may not accurately generate changes to logos. This feature is currently in beta testing."

// LogoDetection is the user-facing logo verdict.
// Warning is non-nil exactly when Found is true.
type LogoDetection struct {
	Found   bool    `json:"found"`
	Warning *string `json:"warning"`
}

// NewLogoDetection applies the detection policy: any entry means found.
func NewLogoDetection(entries []LogoEntry) LogoDetection {
	if len(entries) == 0 {
		return LogoDetection{}
	}
	warning := LogoWarning
	return LogoDetection{Found: true, Warning: &warning}
}

// VariationResult is the response body for the variations endpoint.
type VariationResult struct {
	Images []string      `json:"images"`
	Logo   LogoDetection `json:"logo"`
}

// CourseImageResult is the response body for the course image endpoint.
type CourseImageResult struct {
	FinalSummary string `json:"final_summary"`
	ImagePrompt  string `json:"image_prompt"`
	ImageURL     string `json:"image_url"`
}

// DocumentSummaryResult is the response body for the multi-document summary endpoint.
type DocumentSummaryResult struct {
	FinalSummary string `json:"final_summary"`
	ImagePrompt  string `json:"image_prompt"`
}

// RunKind identifies which pipeline produced a GenerationRun.
type RunKind string

const (
	RunVariation RunKind = "variation"
	RunCourse    RunKind = "course"
	RunDocuments RunKind = "documents"
)

// RunStatus is the outcome of a pipeline run.
type RunStatus string

const (
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// GenerationRun records one pipeline execution for the admin stats endpoint.
type GenerationRun struct {
	ID           int64     `db:"id" json:"id"`
	Kind         RunKind   `db:"kind" json:"kind"`
	ContentID    string    `db:"content_id" json:"content_id"`
	Status       RunStatus `db:"status" json:"status"`
	ImageCount   int       `db:"image_count" json:"image_count"`
	ErrorMessage *string   `db:"error_message" json:"error_message,omitempty"`
	DurationMs   int64     `db:"duration_ms" json:"duration_ms"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// VendorCall tracks each call to a model vendor for cost monitoring.
type VendorCall struct {
	ID         int64     `db:"id" json:"id"`
	ContentID  string    `db:"content_id" json:"content_id"`
	Stage      string    `db:"stage" json:"stage"`
	Provider   string    `db:"provider" json:"provider"`
	Model      string    `db:"model" json:"model"`
	Success    bool      `db:"success" json:"success"`
	DurationMs *int64    `db:"duration_ms" json:"duration_ms,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
