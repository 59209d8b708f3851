package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fleveque/thumbnail-service/internal/media"
	"github.com/fleveque/thumbnail-service/internal/model"
)

// ErrMissingPoster means the content record has no posterImage to vary.
var ErrMissingPoster = fmt.Errorf("%w: content has no posterImage", model.ErrUpstream)

// ContentClient reads content and course metadata from the content API.
type ContentClient struct {
	host        string
	assetPrefix string
	client      *http.Client
	logger      *zap.Logger
}

// NewContentClient creates a client for the content API rooted at host.
func NewContentClient(host, assetPrefix string, timeout time.Duration, logger *zap.Logger) *ContentClient {
	return &ContentClient{
		host:        strings.TrimRight(host, "/"),
		assetPrefix: assetPrefix,
		client:      newHTTPClient(timeout),
		logger:      logger,
	}
}

// contentNode mirrors the parts of result.content we read. Children are
// only present on the course hierarchy response.
type contentNode struct {
	Identifier  string        `json:"identifier"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	PosterImage string        `json:"posterImage"`
	Children    []contentNode `json:"children"`
}

type contentEnvelope struct {
	Result *struct {
		Content *contentNode `json:"content"`
	} `json:"result"`
}

// FetchContent reads a content item in edit mode. The id is passed through
// without interpretation.
func (c *ContentClient) FetchContent(ctx context.Context, contentID string) (*model.ContentRef, error) {
	endpoint := fmt.Sprintf("%s/api/content/v1/read/%s?mode=edit", c.host, url.PathEscape(contentID))
	node, err := c.getContent(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	return toContentRef(contentID, node), nil
}

// FetchCourse reads a course hierarchy. The TOC holds the names of the
// direct children only.
func (c *ContentClient) FetchCourse(ctx context.Context, courseID string) (*model.ContentRef, error) {
	endpoint := fmt.Sprintf("%s/api/course/v1/hierarchy/%s?hierarchyType=detail", c.host, url.PathEscape(courseID))
	node, err := c.getContent(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	ref := toContentRef(courseID, node)
	for _, child := range node.Children {
		if child.Name != "" {
			ref.TOC = append(ref.TOC, child.Name)
		}
	}
	return ref, nil
}

// PosterURL returns the public asset URL of the content's poster image.
func (c *ContentClient) PosterURL(ref *model.ContentRef) (string, error) {
	if ref.PosterImage == "" {
		return "", fmt.Errorf("%w: content %s", ErrMissingPoster, ref.ID)
	}
	return media.FormatStorageURL(ref.PosterImage, c.assetPrefix), nil
}

func (c *ContentClient) getContent(ctx context.Context, endpoint string) (*contentNode, error) {
	c.logger.Debug("fetching content", zap.String("url", endpoint))

	resp, err := fetch(ctx, c.client, endpoint)
	if err != nil {
		return nil, err
	}
	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	if !isSuccess(resp.StatusCode) {
		return nil, fmt.Errorf("%w: content API returned %d for %s", model.ErrUpstream, resp.StatusCode, endpoint)
	}

	var env contentEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: decoding content response: %v", model.ErrUpstream, err)
	}
	if env.Result == nil || env.Result.Content == nil {
		return nil, fmt.Errorf("%w: response has no result.content", model.ErrUpstream)
	}
	return env.Result.Content, nil
}

func toContentRef(requestedID string, node *contentNode) *model.ContentRef {
	id := node.Identifier
	if id == "" {
		id = requestedID
	}
	return &model.ContentRef{
		ID:          id,
		Name:        node.Name,
		Description: node.Description,
		PosterImage: node.PosterImage,
	}
}

// FormatTOC renders a TOC the way the summary prompt expects it:
// one "  - name" line per entry.
func FormatTOC(toc []string) string {
	var b strings.Builder
	for _, name := range toc {
		b.WriteString("  - ")
		b.WriteString(name)
		b.WriteString("\n")
	}
	return b.String()
}
