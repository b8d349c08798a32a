package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/3-lines-studio/lander/internal/core"
)

func sampleProject() *core.ProjectDocument {
	return &core.ProjectDocument{
		Meta: core.ProjectMeta{Name: "Spring Launch"},
		Settings: core.Settings{
			Title:       "Spring Launch",
			Description: "Fresh picks",
		},
		Sections: []core.Section{
			{ID: "s1", Type: "hero"},
			{ID: "s2", Type: "features", Hidden: true},
			{ID: "s3", Type: "footer"},
		},
		Assets: map[string]core.AssetRecord{},
	}
}

func parse(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	require.NoError(t, err)
	return doc
}

func TestAssemblePrefersLiveSurface(t *testing.T) {
	live := &fakeLive{page: core.RenderedPage{HTML: `<section data-section-type="hero"><h1>Hi</h1></section>`, CSS: ".a{color:red}"}}
	render := &fakeRender{page: core.RenderedPage{HTML: "<main>server</main>"}}
	svc := NewAssembleService(live, render, time.Second, time.Second, zaptest.NewLogger(t))

	out := svc.Assemble(context.Background(), AssembleInput{Project: sampleProject()})

	require.NoError(t, out.Error)
	assert.True(t, out.DistGenerated)
	assert.Equal(t, SourceLive, out.Source)
	assert.Empty(t, out.Warnings)
	assert.Nil(t, render.received)

	doc := parse(t, out.HTML)
	assert.Equal(t, "Hi", doc.Find("h1").Text())
	assert.Equal(t, "Spring Launch", doc.Find("title").Text())
	assert.Equal(t, 1, doc.Find(`link[rel="stylesheet"][href="assets/styles.css"]`).Length())
	lang, _ := doc.Find("html").Attr("lang")
	assert.Equal(t, "en", lang)

	assert.True(t, strings.HasPrefix(out.CSS, ".a{color:red}\n"))
	assert.Contains(t, out.CSS, ".lp-bg-host")
}

func TestAssembleFallsBackToRenderService(t *testing.T) {
	live := &fakeLive{err: errors.New("preview not mounted")}
	render := &fakeRender{page: core.RenderedPage{HTML: "<main>server</main>"}}
	svc := NewAssembleService(live, render, time.Second, time.Second, nil)

	out := svc.Assemble(context.Background(), AssembleInput{Project: sampleProject(), Hints: core.UIHints{Locale: "de"}})

	assert.True(t, out.DistGenerated)
	assert.Equal(t, SourceRender, out.Source)
	require.Len(t, out.Warnings, 1)
	assert.Equal(t, core.WarningOther, out.Warnings[0].Type)
	assert.Contains(t, out.Warnings[0].Detail, "preview not mounted")

	require.NotNil(t, render.received)
	require.Len(t, render.received.Sections, 2)
	assert.Equal(t, "s3", render.received.Sections[1].ID)

	doc := parse(t, out.HTML)
	lang, _ := doc.Find("html").Attr("lang")
	assert.Equal(t, "de", lang)
	assert.Equal(t, "server", doc.Find("main").Text())
}

func TestAssembleRejectsEmptyLiveMarkup(t *testing.T) {
	live := &fakeLive{page: core.RenderedPage{HTML: "   "}}
	render := &fakeRender{page: core.RenderedPage{HTML: "<main>server</main>"}}
	svc := NewAssembleService(live, render, 0, 0, nil)

	out := svc.Assemble(context.Background(), AssembleInput{Project: sampleProject()})

	assert.Equal(t, SourceRender, out.Source)
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0].Detail, ErrEmptyMarkup.Error())
}

func TestAssembleWritesPlaceholderWhenEverythingFails(t *testing.T) {
	tests := []struct {
		name   string
		live   LiveSurface
		render RenderService
		reason string
	}{
		{name: "no surfaces", reason: ErrNoRenderer.Error()},
		{
			name:   "both fail",
			live:   &fakeLive{err: errors.New("tab closed")},
			render: &fakeRender{err: errors.New("connection refused")},
			reason: "connection refused",
		},
		{
			name:   "render returns text only",
			render: &fakeRender{page: core.RenderedPage{HTML: "just words"}},
			reason: ErrNoElements.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAssembleService(tt.live, tt.render, time.Second, time.Second, nil)

			out := svc.Assemble(context.Background(), AssembleInput{Project: sampleProject()})

			require.NoError(t, out.Error)
			assert.False(t, out.DistGenerated)
			assert.Equal(t, SourcePlaceholder, out.Source)
			assert.Empty(t, out.CSS)
			require.Len(t, out.Warnings, 1)
			assert.Equal(t, core.WarningDist, out.Warnings[0].Type)
			assert.Contains(t, out.Warnings[0].Detail, tt.reason)
			assert.NoError(t, CheckMarkup(out.HTML))
			assert.Contains(t, out.HTML, "<title>Spring Launch</title>")
		})
	}
}

func TestAssembleRequiresProject(t *testing.T) {
	out := NewAssembleService(nil, nil, 0, 0, nil).Assemble(context.Background(), AssembleInput{})
	assert.Error(t, out.Error)
}

func TestAssembleInjectsBackgrounds(t *testing.T) {
	project := sampleProject()
	project.Settings.Backgrounds = map[string]core.BackgroundSpec{
		core.SlotPage: {Type: core.BackgroundSolid, Color: "#fafafa"},
		core.SlotHero: {Type: core.BackgroundVideo, AssetID: "clip", Overlay: &core.Overlay{Opacity: 0.5}},
	}
	render := &fakeRender{page: core.RenderedPage{HTML: `<section data-section-type="hero"><h1>Hi</h1></section><footer>f</footer>`}}
	svc := NewAssembleService(nil, render, 0, 0, nil)

	out := svc.Assemble(context.Background(), AssembleInput{
		Project: project,
		Assets:  []core.AssetMeta{{ID: "clip", Path: "assets/videos/abc.mp4"}},
	})
	require.True(t, out.DistGenerated)
	assert.Empty(t, out.Warnings)

	doc := parse(t, out.HTML)
	body := doc.Find("body")
	assert.True(t, body.HasClass("lp-bg-host"))
	assert.Equal(t, 1, body.ChildrenFiltered(".lp-bg-layer").Length())
	assert.Equal(t, 1, body.ChildrenFiltered(".lp-bg-content").Length())
	style, _ := body.ChildrenFiltered(".lp-bg-layer").Attr("style")
	assert.Equal(t, "background-color:#fafafa;", style)

	hero := doc.Find(`[data-section-type="hero"]`)
	assert.True(t, hero.HasClass("lp-bg-host"))
	video := hero.Find(".lp-bg-layer video")
	require.Equal(t, 1, video.Length())
	src, _ := video.Attr("src")
	assert.Equal(t, "assets/videos/abc.mp4", src)
	_, muted := video.Attr("muted")
	assert.True(t, muted)
	assert.Equal(t, 1, hero.Find(".lp-bg-overlay").Length())
	assert.Equal(t, "Hi", hero.Find(".lp-bg-content h1").Text())
}

func TestAssembleWrapsHostsStartingWithText(t *testing.T) {
	project := sampleProject()
	project.Settings.Backgrounds = map[string]core.BackgroundSpec{
		core.SlotHero: {Type: core.BackgroundSolid, Color: "#123456"},
	}
	render := &fakeRender{page: core.RenderedPage{HTML: `<section class="hero">Fresh <b>picks</b></section>`}}

	out := NewAssembleService(nil, render, 0, 0, nil).Assemble(context.Background(), AssembleInput{Project: project})
	require.True(t, out.DistGenerated)
	assert.Empty(t, out.Warnings)

	hero := parse(t, out.HTML).Find("section.hero")
	children := hero.Children()
	require.Equal(t, 2, children.Length())
	assert.True(t, children.Eq(0).HasClass("lp-bg-layer"))
	assert.True(t, children.Eq(1).HasClass("lp-bg-content"))
	assert.Equal(t, "Fresh picks", children.Eq(1).Text())
}

func TestAssembleMountsStoresInsideBackgroundContent(t *testing.T) {
	project := sampleProject()
	project.Settings.Backgrounds = map[string]core.BackgroundSpec{
		core.SlotPage: {Type: core.BackgroundSolid, Color: "#fafafa"},
	}
	project.StoresTable = &core.StoresTable{
		Columns: []string{"name"},
		Rows:    []map[string]string{{"name": "Depot"}},
	}
	stores := project.StoresTable.Normalize()
	render := &fakeRender{page: core.RenderedPage{HTML: `<main><h1>No locator section</h1></main>`}}

	out := NewAssembleService(nil, render, 0, 0, nil).Assemble(context.Background(), AssembleInput{Project: project, Stores: &stores})
	require.True(t, out.DistGenerated)

	body := parse(t, out.HTML).Find("body")
	assert.Equal(t, 1, body.Find(".lp-bg-content > ["+StoresMountKey+"]").Length())
	assert.Equal(t, 0, body.ChildrenFiltered("["+StoresMountKey+"]").Length())
	assert.True(t, body.Children().First().HasClass("lp-bg-layer"))
}

func TestAssembleWarnsOnMissingBackgroundAsset(t *testing.T) {
	project := sampleProject()
	project.Settings.Backgrounds = map[string]core.BackgroundSpec{
		core.SlotHero: {Type: core.BackgroundImage, AssetID: "gone"},
	}
	render := &fakeRender{page: core.RenderedPage{HTML: `<section class="hero">x</section>`}}

	out := NewAssembleService(nil, render, 0, 0, nil).Assemble(context.Background(), AssembleInput{Project: project})

	require.Len(t, out.Warnings, 1)
	assert.Equal(t, core.WarningAsset, out.Warnings[0].Type)
	assert.Equal(t, "gone", out.Warnings[0].AssetID)
	assert.Equal(t, 0, parse(t, out.HTML).Find(".lp-bg-layer").Length())
}

func TestAssembleEmbedsStoreData(t *testing.T) {
	project := sampleProject()
	project.StoresTable = &core.StoresTable{
		Columns: []string{"name", "vegan"},
		Rows:    []map[string]string{{"name": "</script><b>Depot", "vegan": "yes"}},
	}
	stores := project.StoresTable.Normalize()
	render := &fakeRender{page: core.RenderedPage{HTML: `<main><section data-section-type="stores"><h2>Find us</h2></section></main>`}}

	out := NewAssembleService(nil, render, 0, 0, nil).Assemble(context.Background(), AssembleInput{Project: project, Stores: &stores})
	require.True(t, out.DistGenerated)

	doc := parse(t, out.HTML)
	assert.Equal(t, 1, doc.Find(`[data-section-type="stores"] [data-lp-stores]`).Length())
	island := doc.Find("script#" + StoresDataID)
	require.Equal(t, 1, island.Length())
	assert.Contains(t, island.Text(), "Depot")
	assert.NotContains(t, island.Text(), "</script>")
	assert.Equal(t, 1, doc.Find(`script[src="assets/app.js"][defer]`).Length())
	assert.Equal(t, 0, doc.Find("b").Length())
}

func TestAssembleKeepsFullDocuments(t *testing.T) {
	project := sampleProject()
	project.Settings.Lang = "fr"
	project.Settings.Favicon = "icon"
	markup := `<!doctype html><html><head><title>Own title</title></head><body><main>x</main></body></html>`

	out := NewAssembleService(nil, &fakeRender{page: core.RenderedPage{HTML: markup}}, 0, 0, nil).Assemble(context.Background(), AssembleInput{
		Project: project,
		Assets:  []core.AssetMeta{{ID: "icon", Path: "assets/images/fav.png"}},
	})

	doc := parse(t, out.HTML)
	assert.Equal(t, "Own title", doc.Find("title").Text())
	assert.Equal(t, 1, doc.Find("title").Length())
	lang, _ := doc.Find("html").Attr("lang")
	assert.Equal(t, "fr", lang)
	href, _ := doc.Find(`link[rel="icon"]`).Attr("href")
	assert.Equal(t, "assets/images/fav.png", href)
	desc, _ := doc.Find(`meta[name="description"]`).Attr("content")
	assert.Equal(t, "Fresh picks", desc)
}

func TestCheckMarkup(t *testing.T) {
	tests := []struct {
		name    string
		markup  string
		wantErr error
	}{
		{name: "fragment", markup: "<div>ok</div>"},
		{name: "self closing", markup: "<img src=a.png/>"},
		{name: "empty", markup: "  \n", wantErr: ErrEmptyMarkup},
		{name: "text only", markup: "hello", wantErr: ErrNoElements},
		{name: "comment only", markup: "<!-- nothing -->", wantErr: ErrNoElements},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckMarkup(tt.markup)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
