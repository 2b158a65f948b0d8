package config

const (
	// Database errors
	ErrInitializeDatabaseFmt = "Failed to initialize database: %v"

	// Storage errors
	ErrOpenStorageFmt = "Failed to open autosave storage: %v"

	// Config errors
	ErrLoadConfig = "Failed to load configuration"

	// Content errors
	ErrLoadDocument = "Error loading document"
	ErrSaveDocument = "Error saving document"
)
