package editor

import (
	"net/http"

	"github.com/debemdeboas/autosave/internal/model"
	"github.com/debemdeboas/autosave/internal/render"
	"github.com/debemdeboas/autosave/internal/routes"
	"github.com/debemdeboas/autosave/internal/util"
)

type previewResponse struct {
	HTML  string `json:"html"`
	Title string `json:"title,omitempty"`
	CSS   string `json:"css,omitempty"`
}

// PreviewHandler renders the post in the request body. It does not touch
// the session, so previews never create undo steps.
type PreviewHandler struct {
	syntaxTheme string
}

func NewPreviewHandler(syntaxTheme string) *PreviewHandler {
	return &PreviewHandler{syntaxTheme: syntaxTheme}
}

func (p *PreviewHandler) Register(mux *http.ServeMux, route string) {
	mux.Handle("POST "+routes.APIPrefix+route+routes.DocID+routes.Preview, p)
}

func (p *PreviewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	post, ok := decodeBody[model.Post](w, r)
	if !ok {
		return
	}

	md := []byte(post.Markdown)
	html, title := render.RenderMarkdownCached(md, util.ContentHash(md), p.syntaxTheme)
	if title == "" {
		title = post.Title
	}

	writeJSON(w, http.StatusOK, previewResponse{
		HTML:  string(html),
		Title: title,
		CSS:   render.SyntaxCSS(p.syntaxTheme),
	})
}
