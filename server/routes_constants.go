package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Liveness
	RouteIndex = "/"
	RoutePing  = "/ping"

	// Storage provider authorization
	RouteAuthorize = "/authorize"
	RouteCallback  = "/oauth2callback"
	RouteLogout    = "/logout"

	// Uploads
	RouteUpload = "/upload"
)
