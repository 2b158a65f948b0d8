package config

const (
	HCType        = "Content-Type"
	HETag         = "ETag"
	HCacheControl = "Cache-Control"

	CTypeHTML  = "text/html"
	CTypeJSON  = "application/json"
	CTypeEvent = "text/event-stream"
)

const (
	HTTPErrMethodNotAllowed = "Method not allowed"
	HTTPErrNotFound         = "Not found"
	HTTPErrBadBody          = "Invalid request body"
)

const (
	QueryLang         = "lang"
	QueryKey          = "key"
	QueryKeepAutosave = "keep_autosave"
)

// SSE event names.
const (
	EventAutosaved = "autosaved"
	EventSaved     = "saved"
)
