package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/3-lines-studio/lander/internal/core"
)

type AssetSource int

const (
	SourceEmpty AssetSource = iota
	SourceEmbedded
	SourceSameOrigin
	SourceRemote
	SourceUnsupported
)

func (s AssetSource) String() string {
	switch s {
	case SourceEmbedded:
		return "embedded"
	case SourceSameOrigin:
		return "same-origin"
	case SourceRemote:
		return "remote"
	case SourceUnsupported:
		return "unsupported"
	default:
		return "empty"
	}
}

func ClassifySource(data string) AssetSource {
	data = strings.TrimSpace(data)
	lower := strings.ToLower(data)
	switch {
	case data == "":
		return SourceEmpty
	case core.IsDataURL(data):
		return SourceEmbedded
	case core.IsRemoteURL(data):
		return SourceRemote
	case strings.HasPrefix(lower, "blob:"), strings.HasPrefix(lower, "file:"), strings.Contains(lower, "://"):
		return SourceUnsupported
	default:
		return SourceSameOrigin
	}
}

var ErrNoFetcher = errors.New("no fetcher configured")

// ResolvedAsset is a payload with its content address. Original is the
// exact reference string it was resolved from.
type ResolvedAsset struct {
	Meta     core.AssetMeta
	Content  []byte
	Original string
}

type ResolveOutput struct {
	Metas    []core.AssetMeta
	Resolved []ResolvedAsset
	Warnings []core.ExportWarning
}

type AssetServiceConfig struct {
	FetchTimeout time.Duration
	Concurrency  int
}

type AssetService struct {
	fetcher Fetcher
	cfg     AssetServiceConfig
	logger  *zap.Logger
	metrics Metrics
}

func NewAssetService(fetcher Fetcher, cfg AssetServiceConfig, logger *zap.Logger, metrics Metrics) *AssetService {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &AssetService{fetcher: fetcher, cfg: cfg, logger: logger, metrics: metrics}
}

type resolveSlot struct {
	asset   ResolvedAsset
	warning *core.ExportWarning
}

// Resolve produces a payload for every asset record. Failures become asset
// warnings; the successes are always returned, ordered by asset id.
func (s *AssetService) Resolve(ctx context.Context, assets map[string]core.AssetRecord) ResolveOutput {
	ids := make([]string, 0, len(assets))
	for id := range assets {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	slots := make([]resolveSlot, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for i, id := range ids {
		g.Go(func() error {
			asset, err := s.resolveOne(gctx, id, assets[id])
			if err != nil {
				w := core.AssetWarning(id, "asset could not be resolved", err)
				w.URL = urlForWarning(assets[id].Data)
				slots[i].warning = &w
				s.logger.Warn("asset skipped", zap.String("asset_id", id), zap.Error(err))
				return nil
			}
			slots[i].asset = asset
			return nil
		})
	}
	_ = g.Wait()

	out := ResolveOutput{Metas: []core.AssetMeta{}}
	for _, slot := range slots {
		if slot.warning != nil {
			out.Warnings = append(out.Warnings, *slot.warning)
			continue
		}
		out.Resolved = append(out.Resolved, slot.asset)
		out.Metas = append(out.Metas, slot.asset.Meta)
	}
	return out
}

func (s *AssetService) resolveOne(ctx context.Context, id string, record core.AssetRecord) (ResolvedAsset, error) {
	data := strings.TrimSpace(record.Data)

	var (
		content  []byte
		mimeType string
	)

	switch source := ClassifySource(data); source {
	case SourceEmpty:
		return ResolvedAsset{}, fmt.Errorf("asset has no data")

	case SourceEmbedded:
		decoded, err := core.ParseDataURL(data)
		if err != nil {
			return ResolvedAsset{}, fmt.Errorf("malformed embedded payload: %w", err)
		}
		content, mimeType = decoded.Data, decoded.MimeType

	case SourceSameOrigin, SourceRemote:
		fetched, err := s.fetch(ctx, "fetch asset "+id, data)
		if err != nil {
			return ResolvedAsset{}, err
		}
		content, mimeType = fetched.Body, fetched.ContentType

	default:
		return ResolvedAsset{}, fmt.Errorf("%s reference cannot be resolved outside the editor", source)
	}

	if len(content) == 0 {
		return ResolvedAsset{}, fmt.Errorf("asset payload is empty")
	}

	filename := record.Filename
	if filename == "" && !core.IsDataURL(data) {
		filename = core.Basename(data)
	}

	meta := core.Address(content, filename, mimeType)
	meta.ID = id
	return ResolvedAsset{Meta: meta, Content: content, Original: record.Data}, nil
}

func (s *AssetService) fetch(ctx context.Context, label, ref string) (core.FetchedAsset, error) {
	if s.fetcher == nil {
		return core.FetchedAsset{}, ErrNoFetcher
	}

	start := time.Now()
	fetched, err := withTimeout(ctx, label, s.cfg.FetchTimeout, func(ctx context.Context) (core.FetchedAsset, error) {
		return s.fetcher.Fetch(ctx, ref)
	})
	s.metrics.ObserveFetch(time.Since(start), err == nil)
	return fetched, err
}

func urlForWarning(data string) string {
	if core.IsDataURL(data) {
		return ""
	}
	return strings.TrimSpace(data)
}
