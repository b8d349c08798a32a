package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"

	"github.com/3-lines-studio/lander/internal/core"
)

const (
	ProjectFile  = "project.json"
	ManifestFile = "manifest.json"
	IndexFile    = "index.html"
	ReadmeFile   = "README.txt"
	StoresCSV    = "assets/data/stores.csv"
	StoresJSON   = "assets/data/stores.normalized.json"
)

var ErrArchiveTooLarge = errors.New("archive exceeds size limit")

type ExportConfig struct {
	AppVersion     string
	FetchTimeout   time.Duration
	LiveTimeout    time.Duration
	RenderTimeout  time.Duration
	ArchiveTimeout time.Duration
	Concurrency    int
	PathPrefixes   []string
}

type ExportDeps struct {
	Fetcher Fetcher
	Live    LiveSurface
	Render  RenderService
	Archive ArchiveWriter
	Logger  *zap.Logger
	Metrics Metrics
	Clock   func() time.Time
	NewID   func() string
}

type ExportInput struct {
	Project *core.ProjectDocument
	Hints   core.UIHints
}

type ExportOutput struct {
	Archive []byte
	Report  core.ExportReport
	Error   error
}

type ExportService struct {
	cfg        ExportConfig
	assets     *AssetService
	serializer *Serializer
	assembler  *AssembleService
	rewriter   *Rewriter
	scripts    *ScriptGenerator
	archive    ArchiveWriter
	logger     *zap.Logger
	metrics    Metrics
	now        func() time.Time
	newID      func() string
}

func NewExportService(cfg ExportConfig, deps ExportDeps) *ExportService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = nopMetrics{}
	}
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	newID := deps.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	return &ExportService{
		cfg: cfg,
		assets: NewAssetService(deps.Fetcher, AssetServiceConfig{
			FetchTimeout: cfg.FetchTimeout,
			Concurrency:  cfg.Concurrency,
		}, logger, metrics),
		serializer: NewSerializer(),
		assembler:  NewAssembleService(deps.Live, deps.Render, cfg.LiveTimeout, cfg.RenderTimeout, logger),
		rewriter: NewRewriter(deps.Fetcher, RewriterConfig{
			FetchTimeout: cfg.FetchTimeout,
			Concurrency:  cfg.Concurrency,
			PathPrefixes: cfg.PathPrefixes,
		}, logger, metrics),
		scripts: NewScriptGenerator(),
		archive: deps.Archive,
		logger:  logger,
		metrics: metrics,
		now:     now,
		newID:   newID,
	}
}

// exportRun is the state of a single export. Nothing in it outlives the
// call to Export.
type exportRun struct {
	id       string
	project  *core.ProjectDocument
	hints    core.UIHints
	logger   *zap.Logger
	warnings core.Warnings

	metas         []core.AssetMeta
	known         map[string]string
	store         *AssetStore
	assetFailures int

	snapshot    []byte
	snapshotErr error
	stores      *core.NormalizedStores

	html          string
	css           string
	script        string
	distGenerated bool
	renderReason  string
}

// Export compiles the project into a bundle archive. Partial failures are
// reported as warnings; an archive is produced whenever the input is valid.
func (s *ExportService) Export(ctx context.Context, in ExportInput) ExportOutput {
	if in.Project == nil {
		return ExportOutput{Error: fmt.Errorf("project is required")}
	}

	start := s.now()
	run := &exportRun{
		id:      s.newID(),
		project: in.Project,
		hints:   in.Hints,
		known:   make(map[string]string),
		store:   NewAssetStore(),
	}
	run.logger = s.logger.With(zap.String("export_id", run.id))
	run.logger.Info("export started",
		zap.Int("sections", len(in.Project.Sections)),
		zap.Int("assets", len(in.Project.Assets)))

	s.stage(run, "assets", func() { s.resolveAssets(ctx, run) })

	snapshotDone := make(chan struct{})
	go func() {
		defer close(snapshotDone)
		s.stage(run, "serialize", func() { s.serialize(run) })
	}()

	s.stage(run, "stores", func() { s.prepareStores(run) })
	s.stage(run, "render", func() { s.render(ctx, run) })
	<-snapshotDone
	if run.snapshot == nil {
		detail := "unknown error"
		if run.snapshotErr != nil {
			detail = run.snapshotErr.Error()
		}
		run.warnings.Add(core.ExportWarning{Type: core.WarningOther, Message: "project snapshot reduced to metadata", Detail: detail})
		run.snapshot = fallbackSnapshot(run.project, run.metas)
	}

	if run.distGenerated {
		s.stage(run, "rewrite", func() { s.rewrite(ctx, run) })
		s.stage(run, "script", func() { s.generateScript(run) })
	}
	if !run.distGenerated && run.html == "" {
		if run.renderReason == "" {
			run.renderReason = "rendering failed"
		}
		run.warnings.Add(core.ExportWarning{Type: core.WarningDist, Message: "deployable page could not be rendered", Detail: run.renderReason})
		run.html = core.PlaceholderDocument(run.project.PageTitle(), run.renderReason)
	}

	manifest := core.NewManifest(run.snapshot, s.cfg.AppVersion, len(run.metas), len(run.project.Sections), s.now())
	archive, minimal, err := s.writeArchive(ctx, run, manifest)

	report := core.ExportReport{
		ExportID:      run.id,
		JSONSize:      len(run.snapshot),
		AssetCount:    len(run.metas),
		AssetFailures: run.assetFailures,
		StoredFiles:   run.store.Len(),
		HTMLSize:      len(run.html),
		CSSSize:       len(run.css),
		JSSize:        len(run.script),
		ArchiveSize:   len(archive),
		DistGenerated: run.distGenerated && !minimal,
		Minimal:       minimal,
		Warnings:      run.warnings.List(),
	}
	elapsed := s.now().Sub(start)
	report.DurationMS = elapsed.Milliseconds()
	s.metrics.ObserveExport(report, elapsed)

	run.logger.Info("export finished",
		zap.String("outcome", report.Outcome()),
		zap.Int("archive_bytes", report.ArchiveSize),
		zap.Int("warnings", len(report.Warnings)),
		zap.Duration("elapsed", elapsed))

	return ExportOutput{Archive: archive, Report: report, Error: err}
}

// stage runs fn and turns a panic into a warning so later stages still run.
func (s *ExportService) stage(run *exportRun, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			run.logger.Error("stage panicked", zap.String("stage", name), zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			if name == "serialize" {
				// Runs concurrently with render; Export reports it after the join.
				run.snapshot = nil
				run.snapshotErr = fmt.Errorf("panic: %v", r)
				return
			}
			if name == "render" {
				run.renderReason = fmt.Sprintf("panic: %v", r)
			}
			run.warnings.Add(core.ExportWarning{
				Type:    core.WarningOther,
				Message: "export stage " + name + " failed",
				Detail:  fmt.Sprint(r),
			})
		}
	}()
	fn()
}

func (s *ExportService) resolveAssets(ctx context.Context, run *exportRun) {
	out := s.assets.Resolve(ctx, run.project.Assets)
	run.metas = out.Metas
	run.assetFailures = len(out.Warnings)
	run.warnings.Merge(out.Warnings)

	for _, asset := range out.Resolved {
		run.store.Put(asset.Meta, asset.Content)
		if ref := strings.TrimSpace(asset.Original); ref != "" {
			run.known[ref] = asset.Meta.Path
		}
	}
}

func (s *ExportService) serialize(run *exportRun) {
	out := s.serializer.Serialize(SerializeInput{Project: run.project, Assets: run.metas})
	if out.Error != nil {
		run.logger.Warn("snapshot serialization failed", zap.Error(out.Error))
		run.snapshotErr = out.Error
		return
	}
	run.snapshot = out.JSON
}

func (s *ExportService) prepareStores(run *exportRun) {
	if !run.project.HasStores() {
		return
	}
	normalized := run.project.StoresTable.Normalize()
	run.stores = &normalized
}

func (s *ExportService) render(ctx context.Context, run *exportRun) {
	out := s.assembler.Assemble(ctx, AssembleInput{
		Project: run.project,
		Hints:   run.hints,
		Assets:  run.metas,
		Stores:  run.stores,
	})
	if out.Error != nil {
		run.renderReason = out.Error.Error()
		return
	}
	run.warnings.Merge(out.Warnings)
	run.html = out.HTML
	run.css = out.CSS
	run.distGenerated = out.DistGenerated
	for _, w := range out.Warnings {
		if w.Type == core.WarningDist {
			run.renderReason = w.Detail
		}
	}
	run.logger.Debug("page assembled", zap.String("source", out.Source), zap.Int("html_bytes", len(out.HTML)))
}

func (s *ExportService) rewrite(ctx context.Context, run *exportRun) {
	out := s.rewriter.Rewrite(ctx, RewriteInput{
		HTML:   run.html,
		CSS:    run.css,
		Known:  run.known,
		Assets: run.metas,
	})
	run.warnings.Merge(out.Warnings)
	for _, asset := range out.Discovered {
		run.store.Put(asset.Meta, asset.Content)
	}
	run.html = out.HTML
	run.css = out.CSS
}

func (s *ExportService) generateScript(run *exportRun) {
	out := s.scripts.Generate(ScriptInput{Stores: run.stores})
	if out.Error != nil {
		run.warnings.Add(core.ExportWarning{Type: core.WarningOther, Message: "store runtime could not be generated", Detail: out.Error.Error()})
		return
	}
	run.script = out.Script
}

func (s *ExportService) writeArchive(ctx context.Context, run *exportRun, manifest core.ManifestRecord) ([]byte, bool, error) {
	manifestJSON, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		manifestJSON = []byte("{}")
	}
	full := s.fullEntries(run, manifestJSON)
	minimal := minimalEntries(run, manifestJSON)

	attempts := []attempt[[]byte]{
		{name: "full", run: s.writeWith(full)},
		{name: "minimal", run: s.writeWith(minimal)},
		{name: "emergency", run: func(context.Context) ([]byte, error) { return storeOnlyArchive(minimal) }},
	}

	data, used, failures, err := runChain(ctx, attempts)
	for _, f := range failures {
		run.warnings.Add(core.ExportWarning{
			Type:    core.WarningOther,
			Message: f.Name + " archive could not be written",
			Detail:  f.Err.Error(),
		})
	}
	if err != nil {
		run.logger.Error("archive write failed", zap.Error(err))
		return nil, true, fmt.Errorf("write archive: %w", err)
	}
	if used != "full" {
		run.logger.Warn("wrote reduced archive", zap.String("archive", used))
	}
	return data, used != "full", nil
}

func (s *ExportService) writeWith(entries []core.ArchiveEntry) func(context.Context) ([]byte, error) {
	if s.archive == nil {
		return nil
	}
	return func(ctx context.Context) ([]byte, error) {
		return withTimeout(ctx, "archive write", s.cfg.ArchiveTimeout, func(ctx context.Context) ([]byte, error) {
			return s.archive.Write(ctx, entries)
		})
	}
}

func (s *ExportService) fullEntries(run *exportRun, manifestJSON []byte) []core.ArchiveEntry {
	entries := []core.ArchiveEntry{
		{Path: ProjectFile, Data: run.snapshot},
		{Path: ManifestFile, Data: manifestJSON},
		{Path: IndexFile, Data: []byte(run.html)},
		{Path: core.DistPath(IndexFile), Data: []byte(run.html)},
	}

	if !run.distGenerated {
		entries = append(entries, core.ArchiveEntry{Path: core.DistPath(ReadmeFile), Data: []byte(core.PlaceholderReadme(run.renderReason))})
	}

	var generated []core.ArchiveEntry
	if run.distGenerated {
		generated = append(generated, core.ArchiveEntry{Path: StylesheetPath, Data: []byte(run.css)})
		if run.script != "" {
			generated = append(generated, core.ArchiveEntry{Path: ScriptPath, Data: []byte(run.script)})
		}
	}
	if run.project.HasStores() {
		generated = append(generated, storeEntries(run)...)
	}
	for _, e := range generated {
		entries = append(entries, e, core.ArchiveEntry{Path: core.DistPath(e.Path), Data: e.Data})
	}

	return append(entries, run.store.Entries()...)
}

func storeEntries(run *exportRun) []core.ArchiveEntry {
	var entries []core.ArchiveEntry
	if csvData, err := run.project.StoresTable.CSV(); err == nil {
		entries = append(entries, core.ArchiveEntry{Path: StoresCSV, Data: csvData})
	} else {
		run.warnings.Add(core.ExportWarning{Type: core.WarningOther, Message: "store table could not be written as CSV", Detail: err.Error()})
	}
	if run.stores != nil {
		if data, err := json.MarshalIndent(run.stores, "", "  "); err == nil {
			entries = append(entries, core.ArchiveEntry{Path: StoresJSON, Data: data})
		}
	}
	return entries
}

func minimalEntries(run *exportRun, manifestJSON []byte) []core.ArchiveEntry {
	reason := run.renderReason
	if reason == "" {
		reason = "the full archive could not be written"
	}
	return []core.ArchiveEntry{
		{Path: ProjectFile, Data: run.snapshot},
		{Path: ManifestFile, Data: manifestJSON},
		{Path: core.DistPath(IndexFile), Data: []byte(core.PlaceholderDocument(run.project.PageTitle(), reason))},
		{Path: core.DistPath(ReadmeFile), Data: []byte(core.PlaceholderReadme(reason))},
	}
}

// storeOnlyArchive is the last rung: uncompressed, in memory, no limits.
func storeOnlyArchive(entries []core.ArchiveEntry) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.Path, Method: zip.Store})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(e.Data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fallbackSnapshot is written when the full snapshot could not be
// produced. It keeps the metadata a re-import needs.
func fallbackSnapshot(project *core.ProjectDocument, metas []core.AssetMeta) []byte {
	if metas == nil {
		metas = []core.AssetMeta{}
	}
	data, err := json.MarshalIndent(struct {
		SchemaVersion int              `json:"schemaVersion"`
		Meta          core.ProjectMeta `json:"meta"`
		Assets        []core.AssetMeta `json:"assets"`
	}{core.SchemaVersion, project.Meta, metas}, "", "  ")
	if err != nil {
		return []byte(`{"schemaVersion":1}`)
	}
	return append(data, '\n')
}
