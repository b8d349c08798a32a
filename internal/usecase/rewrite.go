package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/3-lines-studio/lander/internal/core"
)

var DefaultPathPrefixes = []string{"/uploads/", "/assets/", "/static/", "/images/", "/media/", "/fonts/"}

type RewriterConfig struct {
	FetchTimeout time.Duration
	Concurrency  int
	// PathPrefixes lists the root-relative prefixes treated as same-origin
	// assets during the external sweep.
	PathPrefixes []string
}

type Rewriter struct {
	fetcher Fetcher
	cfg     RewriterConfig
	logger  *zap.Logger
	metrics Metrics
}

func NewRewriter(fetcher Fetcher, cfg RewriterConfig, logger *zap.Logger, metrics Metrics) *Rewriter {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.PathPrefixes == nil {
		cfg.PathPrefixes = DefaultPathPrefixes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Rewriter{fetcher: fetcher, cfg: cfg, logger: logger, metrics: metrics}
}

type RewriteInput struct {
	HTML string
	CSS  string
	// Known maps exact reference strings (embedded payloads, asset URLs) to
	// bundle paths.
	Known  map[string]string
	Assets []core.AssetMeta
}

type RewriteOutput struct {
	HTML       string
	CSS        string
	Discovered []ResolvedAsset
	Warnings   []core.ExportWarning
}

type refAction int

const (
	refIgnore refAction = iota
	refKnown
	refEmbedded
	refFetch
	refAmbiguous
)

// Rewrite runs the three passes: exact embedded payloads, the external
// sweep, then the filename fallback.
func (r *Rewriter) Rewrite(ctx context.Context, in RewriteInput) RewriteOutput {
	embedded := make(map[string]string)
	for ref, path := range in.Known {
		if core.IsDataURL(ref) {
			embedded[ref] = path
		}
	}
	htmlText := ReplaceExact(in.HTML, embedded)
	cssText := ReplaceExact(in.CSS, embedded)

	out := RewriteOutput{}

	resolved := make(map[string]string)
	var pending []string
	ambiguous := make(map[string]bool)
	var ambiguousOrder []string
	seen := make(map[string]bool)

	collect := func(ref Reference) {
		if seen[ref.Value] {
			return
		}
		seen[ref.Value] = true
		switch r.classify(ref, in.Known) {
		case refKnown:
			resolved[ref.Value] = in.Known[ref.Value]
		case refEmbedded, refFetch:
			pending = append(pending, ref.Value)
		case refAmbiguous:
			ambiguous[ref.Value] = true
			ambiguousOrder = append(ambiguousOrder, ref.Value)
		}
	}
	for _, ref := range ScanReferences(htmlText, true) {
		collect(ref)
	}
	for _, ref := range ScanReferences(cssText, false) {
		collect(ref)
	}

	discovered, failed, warnings := r.resolvePending(ctx, pending)
	out.Discovered = discovered
	out.Warnings = append(out.Warnings, warnings...)
	for _, asset := range discovered {
		resolved[asset.Original] = asset.Meta.Path
	}

	exact := func(ref Reference) (string, bool) {
		path, ok := resolved[ref.Value]
		return path, ok
	}
	htmlText = RewriteReferences(htmlText, true, exact)
	cssText = RewriteReferences(cssText, false, exact)

	byName := filenameIndex(in.Assets)
	rescued := make(map[string]bool)
	fallback := func(ref Reference) (string, bool) {
		if !failed[ref.Value] && !ambiguous[ref.Value] {
			return "", false
		}
		path, ok := byName.lookup(core.Basename(ref.Value))
		if ok {
			rescued[ref.Value] = true
		}
		return path, ok
	}
	htmlText = RewriteReferences(htmlText, true, fallback)
	cssText = RewriteReferences(cssText, false, fallback)

	for _, ref := range ambiguousOrder {
		if rescued[ref] {
			continue
		}
		out.Warnings = append(out.Warnings, core.ExportWarning{
			Type:    core.WarningOther,
			Message: "ambiguous reference left unchanged",
			URL:     ref,
			Detail:  "not an absolute URL or a recognized same-origin path",
		})
	}

	out.HTML = htmlText
	out.CSS = cssText
	return out
}

func (r *Rewriter) classify(ref Reference, known map[string]string) refAction {
	value := ref.Value
	if core.IsNonAssetRef(value) || core.IsBundlePath(value) {
		return refIgnore
	}
	if _, ok := known[value]; ok {
		return refKnown
	}
	if core.IsDataURL(value) {
		return refEmbedded
	}
	if ref.Attr == "href" && !core.IsAssetExtension(value) {
		return refIgnore
	}
	if core.IsRemoteURL(value) {
		return refFetch
	}
	if core.IsRootRelative(value) && r.hasRecognizedPrefix(value) {
		return refFetch
	}
	return refAmbiguous
}

func (r *Rewriter) hasRecognizedPrefix(ref string) bool {
	for _, prefix := range r.cfg.PathPrefixes {
		if prefix != "" && strings.HasPrefix(ref, prefix) {
			return true
		}
	}
	return false
}

type sweepSlot struct {
	asset   *ResolvedAsset
	warning *core.ExportWarning
}

// resolvePending content-addresses every pending reference concurrently.
// Results are merged in discovery order after all retrievals settle.
func (r *Rewriter) resolvePending(ctx context.Context, refs []string) ([]ResolvedAsset, map[string]bool, []core.ExportWarning) {
	slots := make([]sweepSlot, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)
	for i, ref := range refs {
		g.Go(func() error {
			asset, err := r.resolveRef(gctx, ref)
			if err != nil {
				slots[i].warning = &core.ExportWarning{
					Type:    core.WarningAsset,
					Message: "external reference could not be fetched",
					URL:     urlForWarning(ref),
					Detail:  err.Error(),
				}
				r.logger.Warn("external reference skipped", zap.String("url", core.Truncate(ref, 120)), zap.Error(err))
				return nil
			}
			slots[i].asset = &asset
			return nil
		})
	}
	_ = g.Wait()

	var (
		discovered []ResolvedAsset
		warnings   []core.ExportWarning
	)
	failed := make(map[string]bool)
	for i, slot := range slots {
		if slot.warning != nil {
			failed[refs[i]] = true
			warnings = append(warnings, *slot.warning)
			continue
		}
		discovered = append(discovered, *slot.asset)
	}
	return discovered, failed, warnings
}

func (r *Rewriter) resolveRef(ctx context.Context, ref string) (ResolvedAsset, error) {
	if core.IsDataURL(ref) {
		decoded, err := core.ParseDataURL(ref)
		if err != nil {
			return ResolvedAsset{}, fmt.Errorf("malformed embedded payload: %w", err)
		}
		if len(decoded.Data) == 0 {
			return ResolvedAsset{}, fmt.Errorf("embedded payload is empty")
		}
		return ResolvedAsset{Meta: core.Address(decoded.Data, "", decoded.MimeType), Content: decoded.Data, Original: ref}, nil
	}

	if r.fetcher == nil {
		return ResolvedAsset{}, ErrNoFetcher
	}

	start := time.Now()
	fetched, err := withTimeout(ctx, "fetch "+core.Truncate(ref, 80), r.cfg.FetchTimeout, func(ctx context.Context) (core.FetchedAsset, error) {
		return r.fetcher.Fetch(ctx, ref)
	})
	r.metrics.ObserveFetch(time.Since(start), err == nil)
	if err != nil {
		return ResolvedAsset{}, err
	}
	if len(fetched.Body) == 0 {
		return ResolvedAsset{}, fmt.Errorf("empty response body")
	}

	meta := core.Address(fetched.Body, core.Basename(ref), fetched.ContentType)
	return ResolvedAsset{Meta: meta, Content: fetched.Body, Original: ref}, nil
}

type nameIndex struct {
	exact  map[string]string
	folded map[string]string
}

// filenameIndex maps original filenames to bundle paths. Assets arrive
// sorted by id, so the first asset to claim a name keeps it.
func filenameIndex(assets []core.AssetMeta) nameIndex {
	idx := nameIndex{exact: make(map[string]string), folded: make(map[string]string)}
	for _, a := range assets {
		name := core.Basename(a.Filename)
		if name == "" {
			continue
		}
		if _, ok := idx.exact[name]; !ok {
			idx.exact[name] = a.Path
		}
		lower := strings.ToLower(name)
		if _, ok := idx.folded[lower]; !ok {
			idx.folded[lower] = a.Path
		}
	}
	return idx
}

func (idx nameIndex) lookup(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	if p, ok := idx.exact[name]; ok {
		return p, true
	}
	p, ok := idx.folded[strings.ToLower(name)]
	return p, ok
}
