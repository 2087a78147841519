package handler

const (
	// APIPath is the common prefix of the JSON API routes.
	APIPath = "/api/v1"

	// RootPath is the root path of the route group.
	RootPath = "/"

	// RouterRootPath is the root path within an app.Route group.
	RouterRootPath = "/"

	// ErrNilACDFatalLogMsg is used if app or cfg or db var pointer is nil.
	ErrNilACDFatalLogMsg = "app, cfg or db is nil"

	// DefaultPageSize for paginated list endpoints.
	DefaultPageSize = 25
	// MaxPageSize caps the pageSize query parameter.
	MaxPageSize = 100
)
