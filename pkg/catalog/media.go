package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/Sternrassler/storefront-client/pkg/fetch"
	"github.com/Sternrassler/storefront-client/pkg/pagination"
)

// mediaList accepts data as a bare array or as {items: [...]}.
type mediaList []MediaItem

func (m *mediaList) UnmarshalJSON(data []byte) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, (*[]MediaItem)(m))
	}
	var wrapped struct {
		Items []MediaItem `json:"items"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	*m = wrapped.Items
	return nil
}

// MediaSource serves GET /media/category/{id}. The endpoint is unpaged.
type MediaSource struct {
	API API
}

// FetchPage implements pagination.Source.
func (s MediaSource) FetchPage(ctx context.Context, req pagination.PageRequest[int64]) (pagination.PageResult[MediaItem], error) {
	status, body, err := get(ctx, s.API, fmt.Sprintf("/media/category/%d", req.Key), nil)
	if err != nil {
		return pagination.PageResult[MediaItem]{}, err
	}

	var items mediaList
	if err := decodeEnvelope(status, body, &items); err != nil {
		return pagination.PageResult[MediaItem]{}, err
	}

	return pagination.PageResult[MediaItem]{
		Items:      items,
		TotalCount: len(items),
	}, nil
}

// NewMediaListing returns a controller over the media of a category.
func NewMediaListing(api API, cfg fetch.Config[int64, MediaItem]) *fetch.Controller[int64, MediaItem] {
	if cfg.Name == "" {
		cfg.Name = "media"
	}
	cfg.Unpaged = true
	return fetch.New[int64, MediaItem](MediaSource{API: api}, cfg)
}
