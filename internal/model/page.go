package model

// Page is a block-based landing page.
type Page struct {
	Title  string  `json:"title"`
	Slug   string  `json:"slug"`
	Blocks []Block `json:"blocks"`
}

type Block struct {
	ID    string         `json:"id"`
	Type  string         `json:"type"`
	Props map[string]any `json:"props,omitempty"`
}

// Homepage is the ordered list of sections shown on the site root.
type Homepage struct {
	Sections []Section `json:"sections"`
}

type Section struct {
	ID      string         `json:"id"`
	Kind    string         `json:"kind"`
	Enabled bool           `json:"enabled"`
	Props   map[string]any `json:"props,omitempty"`
}
