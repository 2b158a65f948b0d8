// Package model defines the editable documents the draft manager tracks.
// All of them serialize deterministically with encoding/json.
package model

import (
	"strings"

	"github.com/debemdeboas/autosave/internal/util"
)

// Post is a markdown article. Title and Language can be derived from the
// mmark front matter at the top of Markdown.
type Post struct {
	Title    string `json:"title"`
	Markdown string `json:"markdown"`
	Language string `json:"language,omitempty"`
}

// ApplyFrontMatter fills Title and Language from the post's %%% block and
// reports whether one was found. Series names prefix the title.
func (p *Post) ApplyFrontMatter() bool {
	info, err := util.GetFrontMatter([]byte(p.Markdown))
	if err != nil {
		return false
	}

	if info.Title != "" {
		var s strings.Builder
		if info.SeriesInfo.Name != "" && info.SeriesInfo.Value != "" {
			s.WriteString("[")
			s.WriteString(info.SeriesInfo.Name)
			s.WriteString("-")
			s.WriteString(info.SeriesInfo.Value)
			s.WriteString("] ")
		}
		s.WriteString(info.Title)
		p.Title = s.String()
	}
	p.Language = info.Language
	return true
}
