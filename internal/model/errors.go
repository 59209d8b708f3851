package model

import "errors"

// Sentinel errors for each failure class of the generation pipelines.
// Components wrap them with fmt.Errorf("%w: ...") so callers can match
// with errors.Is without caring which vendor produced the failure.
var (
	// ErrUpstream means the content API returned a non-2xx status or a
	// payload missing the fields we need.
	ErrUpstream = errors.New("upstream content error")

	// ErrUnsupportedMediaType means a downloaded image is not PNG or JPEG.
	ErrUnsupportedMediaType = errors.New("unsupported media type")

	// ErrTransport covers network failures and non-2xx image downloads.
	ErrTransport = errors.New("transport error")

	// ErrParse means a model returned output we could not decode.
	ErrParse = errors.New("parse error")

	// ErrGeneration means a text, vision or image model call failed or
	// returned nothing usable.
	ErrGeneration = errors.New("generation error")

	// ErrStorage means an object store write or ACL change failed.
	ErrStorage = errors.New("storage error")

	// ErrConfiguration means required settings were missing at construction time.
	ErrConfiguration = errors.New("configuration error")
)
