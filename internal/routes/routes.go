// Package routes defines HTTP route constants for the application.
package routes

const (
	RobotsPath = "/robots.txt"
	SSEPath    = "/sse"
	APIPrefix  = "/api/"
)

// Collection names under APIPrefix.
const (
	Posts    = "posts"
	Pages    = "pages"
	Homepage = "homepage"
)

// Per-document actions, appended to APIPrefix + collection + "/{id}".
const (
	DocID    = "/{id}"
	Observe  = "/observe"
	Undo     = "/undo"
	Redo     = "/redo"
	Status   = "/status"
	Restore  = "/restore"
	Autosave = "/autosave"
	Session  = "/session"
	Preview  = "/preview"
)
