package core

import (
	"os"
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	v := m.Run()
	snaps.Clean(m)
	os.Exit(v)
}

func TestRenderHTMLShell(t *testing.T) {
	out := RenderHTMLShell(ShellInput{
		Title:       "Tom & Jerry",
		Description: `Say "hi"`,
		Lang:        "fr",
		BodyHTML:    "<main>x</main>",
	})

	assert.True(t, strings.HasPrefix(out, "<!doctype html>"))
	assert.Contains(t, out, `<html lang="fr">`)
	assert.Contains(t, out, "<title>Tom &amp; Jerry</title>")
	assert.Contains(t, out, `content="Say &#34;hi&#34;"`)
	assert.Contains(t, out, "<main>x</main>")
}

func TestRenderHTMLShellKeepsExistingTitle(t *testing.T) {
	out := RenderHTMLShell(ShellInput{Title: "Ignored", HeadHTML: "<title>Own</title>"})

	assert.Equal(t, 1, strings.Count(out, "<title>"))
	assert.Contains(t, out, "<title>Own</title>")
	assert.Contains(t, out, `<html lang="en">`)
}

func TestEscapeJSONForScript(t *testing.T) {
	assert.Equal(t, `{"a":"<\/script>"}`, EscapeJSONForScript([]byte(`{"a":"</script>"}`)))
}

func TestIsFullDocument(t *testing.T) {
	assert.True(t, IsFullDocument("  <!DOCTYPE html><html></html>"))
	assert.True(t, IsFullDocument("<html lang=\"en\"></html>"))
	assert.False(t, IsFullDocument("<section>hi</section>"))
}

func TestPlaceholderDocument(t *testing.T) {
	doc := PlaceholderDocument("Spring <Sale>", "render service: connection refused")

	snaps.WithConfig(snaps.Ext(".html")).MatchSnapshot(t, doc)
	assert.Contains(t, doc, "Spring &lt;Sale&gt;")
	assert.Equal(t, doc, PlaceholderDocument("Spring <Sale>", "render service: connection refused"))
}

func TestPlaceholderDocumentDefaults(t *testing.T) {
	doc := PlaceholderDocument(" ", "")

	assert.Contains(t, doc, "<title>Landing page</title>")
	assert.Contains(t, doc, "rendering failed")
}
