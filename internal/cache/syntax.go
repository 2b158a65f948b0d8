package cache

var syntaxCache = NewCache[string, string]()

// GetSyntaxCSS returns the chroma stylesheet generated for theme.
func GetSyntaxCSS(theme string) (string, bool) {
	return syntaxCache.Get(theme)
}

func SetSyntaxCSS(theme, css string) {
	syntaxCache.Set(theme, css)
}
