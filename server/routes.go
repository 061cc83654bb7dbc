package server

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET "+RouteIndex+"{$}", ChainMiddleware(s.IndexHandler(), s.BaseMiddleware()...))
	s.RegisterRouteHandler("GET "+RoutePing, ChainMiddleware(s.PingHandler(), s.BaseMiddleware()...))

	// Authorization with the storage provider (browser navigations)
	s.RegisterRouteHandler("GET "+RouteAuthorize, ChainMiddleware(s.AuthorizeHandler(), s.SessionMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteCallback, ChainMiddleware(s.OAuthCallbackHandler(), s.SessionMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.SessionMiddleware()...))

	// Upload API
	s.RegisterRouteHandler("POST "+RouteUpload, ChainMiddleware(s.UploadHandler(), s.SessionMiddleware()...))
}
