package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/3-lines-studio/lander/internal/core"
)

const (
	StylesheetPath = "assets/styles.css"
	ScriptPath     = "assets/app.js"
	StoresDataID   = "lp-stores-data"
	StoresMountKey = "data-lp-stores"

	heroSelector = `[data-section-type="hero"], section.hero, #hero`
)

const (
	SourceLive        = "live"
	SourceRender      = "render"
	SourcePlaceholder = "placeholder"
)

var (
	ErrNoRenderer  = errors.New("no rendering surface configured")
	ErrEmptyMarkup = errors.New("rendered markup is empty")
	ErrNoElements  = errors.New("rendered markup contains no elements")
)

type AssembleInput struct {
	Project *core.ProjectDocument
	Hints   core.UIHints
	Assets  []core.AssetMeta
	Stores  *core.NormalizedStores
}

type AssembleOutput struct {
	HTML          string
	CSS           string
	Source        string
	DistGenerated bool
	Warnings      []core.ExportWarning
	Error         error
}

type AssembleService struct {
	live          LiveSurface
	render        RenderService
	liveTimeout   time.Duration
	renderTimeout time.Duration
	logger        *zap.Logger
}

func NewAssembleService(live LiveSurface, render RenderService, liveTimeout, renderTimeout time.Duration, logger *zap.Logger) *AssembleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssembleService{
		live:          live,
		render:        render,
		liveTimeout:   liveTimeout,
		renderTimeout: renderTimeout,
		logger:        logger,
	}
}

// Assemble produces the deployable document. Rendering falls back from the
// live surface to the render service to a placeholder; it never fails.
func (s *AssembleService) Assemble(ctx context.Context, in AssembleInput) AssembleOutput {
	if in.Project == nil {
		return AssembleOutput{Error: fmt.Errorf("project is required")}
	}

	attempts := []attempt[core.RenderedPage]{
		{name: SourceLive, run: s.liveAttempt(in.Hints)},
		{name: SourceRender, run: s.renderAttempt(in.Project, in.Hints)},
	}

	page, used, failures, err := runChain(ctx, attempts)

	out := AssembleOutput{}
	if err != nil {
		reason := err.Error()
		if errors.Is(err, ErrNoAttempts) {
			reason = ErrNoRenderer.Error()
		}
		s.logger.Warn("rendering failed, writing placeholder", zap.String("reason", reason))
		out.HTML = core.PlaceholderDocument(in.Project.PageTitle(), reason)
		out.Source = SourcePlaceholder
		out.Warnings = append(out.Warnings, core.ExportWarning{
			Type:    core.WarningDist,
			Message: "deployable page could not be rendered",
			Detail:  reason,
		})
		return out
	}

	for _, f := range failures {
		out.Warnings = append(out.Warnings, core.ExportWarning{
			Type:    core.WarningOther,
			Message: fmt.Sprintf("%s rendering failed, used %s", f.Name, used),
			Detail:  f.Err.Error(),
		})
	}

	lookup := lookupFromMetas(in.Assets)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s.shell(in.Project, in.Hints, page.HTML)))
	if err != nil {
		out.HTML = core.PlaceholderDocument(in.Project.PageTitle(), err.Error())
		out.Source = SourcePlaceholder
		out.Warnings = append(out.Warnings, core.ExportWarning{Type: core.WarningDist, Message: "rendered document could not be parsed", Detail: err.Error()})
		return out
	}

	decorateHead(doc, in.Project, in.Hints, lookup)
	// Stores go first so a body-level mount ends up inside the background
	// content wrapper, above the layer.
	if in.Stores != nil {
		if err := injectStores(doc, in.Stores); err != nil {
			out.Warnings = append(out.Warnings, core.ExportWarning{Type: core.WarningOther, Message: "store data could not be embedded", Detail: err.Error()})
		}
	}
	out.Warnings = append(out.Warnings, injectBackgrounds(doc, in.Project.Settings.Backgrounds, lookup)...)

	rendered, err := doc.Html()
	if err != nil {
		out.HTML = core.PlaceholderDocument(in.Project.PageTitle(), err.Error())
		out.Source = SourcePlaceholder
		out.Warnings = append(out.Warnings, core.ExportWarning{Type: core.WarningDist, Message: "rendered document could not be serialized", Detail: err.Error()})
		return out
	}

	out.HTML = rendered
	out.CSS = composeCSS(page.CSS, in.Project.PageBaseStyle)
	out.Source = used
	out.DistGenerated = true
	return out
}

func (s *AssembleService) liveAttempt(hints core.UIHints) func(context.Context) (core.RenderedPage, error) {
	if s.live == nil {
		return nil
	}
	return func(ctx context.Context) (core.RenderedPage, error) {
		page, err := withTimeout(ctx, "live surface snapshot", s.liveTimeout, func(ctx context.Context) (core.RenderedPage, error) {
			return s.live.Snapshot(ctx, hints)
		})
		if err != nil {
			return core.RenderedPage{}, err
		}
		return page, CheckMarkup(page.HTML)
	}
}

func (s *AssembleService) renderAttempt(project *core.ProjectDocument, hints core.UIHints) func(context.Context) (core.RenderedPage, error) {
	if s.render == nil {
		return nil
	}
	visible := *project
	visible.Sections = project.VisibleSections()

	return func(ctx context.Context) (core.RenderedPage, error) {
		page, err := withTimeout(ctx, "render service", s.renderTimeout, func(ctx context.Context) (core.RenderedPage, error) {
			return s.render.Render(ctx, &visible, hints)
		})
		if err != nil {
			return core.RenderedPage{}, err
		}
		return page, CheckMarkup(page.HTML)
	}
}

func (s *AssembleService) shell(project *core.ProjectDocument, hints core.UIHints, markup string) string {
	if core.IsFullDocument(markup) {
		return markup
	}
	return core.RenderHTMLShell(core.ShellInput{
		Title:       project.PageTitle(),
		Description: project.Settings.Description,
		Lang:        pageLang(project, hints),
		BodyHTML:    markup,
	})
}

// CheckMarkup rejects output that tokenizes to nothing usable.
func CheckMarkup(markup string) error {
	if strings.TrimSpace(markup) == "" {
		return ErrEmptyMarkup
	}

	z := nethtml.NewTokenizer(strings.NewReader(markup))
	elements := 0
	for {
		switch z.Next() {
		case nethtml.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return fmt.Errorf("tokenize markup: %w", err)
			}
			if elements == 0 {
				return ErrNoElements
			}
			return nil
		case nethtml.StartTagToken, nethtml.SelfClosingTagToken:
			elements++
		}
	}
}

func pageLang(project *core.ProjectDocument, hints core.UIHints) string {
	if project.Settings.Lang != "" {
		return project.Settings.Lang
	}
	if hints.Locale != "" {
		return hints.Locale
	}
	return "en"
}

func lookupFromMetas(metas []core.AssetMeta) core.AssetLookup {
	byID := make(map[string]string, len(metas))
	for _, m := range metas {
		if m.ID != "" {
			byID[m.ID] = m.Path
		}
	}
	return func(id string) (string, bool) {
		if id == "" {
			return "", false
		}
		p, ok := byID[id]
		return p, ok
	}
}

func decorateHead(doc *goquery.Document, project *core.ProjectDocument, hints core.UIHints, lookup core.AssetLookup) {
	root := doc.Find("html").First()
	if _, ok := root.Attr("lang"); !ok {
		root.SetAttr("lang", pageLang(project, hints))
	}

	head := doc.Find("head").First()

	if head.Find("title").Length() == 0 {
		head.AppendHtml("<title>" + html.EscapeString(project.PageTitle()) + "</title>")
	}

	if desc := project.Settings.Description; desc != "" && head.Find(`meta[name="description"]`).Length() == 0 {
		head.AppendHtml(`<meta name="description" content="` + html.EscapeString(desc) + `"/>`)
	}

	if icon := project.Settings.Favicon; icon != "" && head.Find(`link[rel~="icon"]`).Length() == 0 {
		if p, ok := lookup(icon); ok {
			icon = p
		}
		head.AppendHtml(`<link rel="icon" href="` + html.EscapeString(icon) + `"/>`)
	}

	if head.Find(`link[href="` + StylesheetPath + `"]`).Length() == 0 {
		head.AppendHtml(`<link rel="stylesheet" href="` + StylesheetPath + `"/>`)
	}
}

func injectBackgrounds(doc *goquery.Document, specs map[string]core.BackgroundSpec, lookup core.AssetLookup) []core.ExportWarning {
	var warnings []core.ExportWarning

	slots := []struct {
		name   string
		target *goquery.Selection
	}{
		{core.SlotPage, doc.Find("body").First()},
		{core.SlotHero, doc.Find(heroSelector).First()},
	}

	for _, slot := range slots {
		spec, ok := specs[slot.name]
		if !ok {
			continue
		}
		layer, paints, warning := core.ResolveBackground(spec, lookup)
		if warning != nil {
			warning.Message = slot.name + " background: " + warning.Message
			warnings = append(warnings, *warning)
		}
		if !paints {
			continue
		}
		if slot.target.Length() == 0 {
			warnings = append(warnings, core.ExportWarning{
				Type:    core.WarningOther,
				Message: slot.name + " background has no target element",
			})
			continue
		}
		injectLayer(slot.target, layer)
	}
	return warnings
}

// injectLayer wraps the host's children in a content wrapper and puts the
// background layer before it. Hosts that already carry a layer are skipped.
func injectLayer(host *goquery.Selection, layer core.BackgroundLayer) {
	if host.ChildrenFiltered(".lp-bg-layer").Length() > 0 {
		return
	}
	host.AddClass("lp-bg-host")

	// Built as a node: parsing wrapper markup uses the first child as the
	// fragment context, which fails when that child is a text node.
	wrapper := &nethtml.Node{
		Type:     nethtml.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr:     []nethtml.Attribute{{Key: "class", Val: "lp-bg-content"}},
	}
	if contents := host.Contents(); contents.Length() > 0 {
		contents.WrapAllNode(wrapper)
	} else {
		host.AppendNodes(wrapper)
	}
	host.PrependHtml(layerHTML(layer))
}

func layerHTML(layer core.BackgroundLayer) string {
	var b strings.Builder
	b.WriteString(`<div class="lp-bg-layer" aria-hidden="true"`)
	if layer.Style != "" {
		fmt.Fprintf(&b, ` style="%s"`, html.EscapeString(layer.Style))
	}
	b.WriteString(">")

	if layer.IsVideo() {
		fmt.Fprintf(&b, `<video class="lp-bg-video" src="%s"`, html.EscapeString(layer.VideoSrc))
		if layer.PosterSrc != "" {
			fmt.Fprintf(&b, ` poster="%s"`, html.EscapeString(layer.PosterSrc))
		}
		fmt.Fprintf(&b, ` style="object-fit:%s" autoplay muted loop playsinline></video>`, layer.VideoFit)
	}

	if layer.OverlayStyle != "" {
		fmt.Fprintf(&b, `<div class="lp-bg-overlay" style="%s"></div>`, html.EscapeString(layer.OverlayStyle))
	}

	b.WriteString("</div>")
	return b.String()
}

func injectStores(doc *goquery.Document, stores *core.NormalizedStores) error {
	data, err := json.Marshal(stores)
	if err != nil {
		return err
	}

	body := doc.Find("body").First()

	if doc.Find("[" + StoresMountKey + "]").Length() == 0 {
		mount := `<div ` + StoresMountKey + `=""></div>`
		section := doc.Find(`[data-section-type="` + core.SectionTypeStores + `"]`).First()
		content := body.ChildrenFiltered(".lp-bg-content").First()
		switch {
		case section.Length() > 0:
			section.AppendHtml(mount)
		case content.Length() > 0:
			content.AppendHtml(mount)
		default:
			body.AppendHtml(mount)
		}
	}

	doc.Find("#" + StoresDataID).Remove()
	body.AppendHtml(`<script type="application/json" id="` + StoresDataID + `">` + core.EscapeJSONForScript(data) + `</script>`)

	if doc.Find(`script[src="` + ScriptPath + `"]`).Length() == 0 {
		body.AppendHtml(`<script src="` + ScriptPath + `" defer></script>`)
	}
	return nil
}

func composeCSS(surface string, baseStyle map[string]any) string {
	var b strings.Builder
	if s := strings.TrimSpace(surface); s != "" {
		b.WriteString(s)
		b.WriteString("\n")
	}
	b.WriteString(core.BaseStyleCSS(baseStyle))
	b.WriteString(core.LayerCSS)
	return b.String()
}
