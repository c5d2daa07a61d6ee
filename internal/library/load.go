// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pdiddy/literature-match/internal/httputil"
	"github.com/pdiddy/literature-match/pkg/types"
)

// DefaultEndpoint is the Better BibTeX export of the whole Zotero library.
const DefaultEndpoint = "http://127.0.0.1:23119/better-bibtex/export/library?/1/library.betterbibtexjson"

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "literature-match/0.1"
)

// Source describes where a loaded library came from.
type Source struct {
	// Location is the endpoint URL or file path that was read.
	Location string

	// Endpoint is set when the library was fetched over HTTP.
	Endpoint string

	// CachePath is set when the library was read from a local file.
	CachePath string
}

// Load reads the library named by cfg and indexes it. A local cache file
// takes precedence over the endpoint. A source that cannot be read wraps
// ErrSourceUnreachable, one that cannot be decoded wraps
// ErrSourceUnparseable; nothing partial is returned.
func Load(ctx context.Context, cfg types.LibraryConfig) (*Index, Source, error) {
	var (
		data any
		src  Source
		err  error
	)

	if cfg.CachePath != "" {
		src = Source{Location: cfg.CachePath, CachePath: cfg.CachePath}
		data, err = LoadFile(cfg.CachePath)
	} else {
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = DefaultEndpoint
		}
		src = Source{Location: endpoint, Endpoint: endpoint}
		data, err = FetchEndpoint(ctx, endpoint, cfg.HTTPConfig)
	}
	if err != nil {
		return nil, src, err
	}

	idx, err := Build(data)
	if err != nil {
		return nil, src, eris.Wrapf(err, "indexing library from %s", src.Location)
	}

	zap.L().Info("library indexed",
		zap.String("source", src.Location),
		zap.Int("items", idx.TotalItems()),
		zap.Int("indexed", idx.Len()),
		zap.Int("warnings", len(idx.warnings)),
	)
	return idx, src, nil
}

// LoadFile decodes a Better BibTeX JSON export from path.
func LoadFile(path string) (any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(ErrSourceUnreachable, "reading library cache %s: %v", path, err)
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, eris.Wrapf(ErrSourceUnparseable, "decoding library cache %s: %v", path, err)
	}
	return data, nil
}

// FetchEndpoint downloads and decodes a Better BibTeX JSON export. The
// whole fetch is bounded by cfg.Timeout (default 10s); there is no retry.
func FetchEndpoint(ctx context.Context, endpoint string, cfg types.HTTPConfig) (any, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := httputil.Get(ctx, httputil.NewClient(timeout), endpoint, userAgent, 0)
	if err != nil {
		return nil, eris.Wrapf(ErrSourceUnreachable,
			"failed to fetch Better BibTeX export from Zotero; ensure Zotero is running and the Better BibTeX export endpoint is available (endpoint: %s, error: %v)",
			endpoint, err)
	}

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, eris.Wrapf(ErrSourceUnparseable, "decoding Better BibTeX export from %s: %v", endpoint, err)
	}
	return data, nil
}
