package core

// RenderedPage is a document produced by the live preview or the render
// service. HTML may be a full document or a body fragment.
type RenderedPage struct {
	HTML string
	CSS  string
}

type FetchedAsset struct {
	Body        []byte
	ContentType string
	URL         string
}

type ArchiveEntry struct {
	Path string
	Data []byte
}
