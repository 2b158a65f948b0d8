package model

import "strings"

// Kind names a document type. It prefixes storage keys and documents rows.
type Kind string

const (
	KindPost     Kind = "post"
	KindPage     Kind = "page"
	KindHomepage Kind = "homepage"
)

// StorageKey builds the autosave key for one document, e.g. "page:home" or
// "post:42:pt" when a language is given.
func StorageKey(kind Kind, id, lang string) string {
	var b strings.Builder
	b.WriteString(string(kind))
	b.WriteByte(':')
	b.WriteString(id)
	if lang != "" {
		b.WriteByte(':')
		b.WriteString(lang)
	}
	return b.String()
}
