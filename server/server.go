package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/cors"
	"github.com/jrsteele09/go-drive-uploader/acquire"
	"github.com/jrsteele09/go-drive-uploader/authflow"
	"github.com/jrsteele09/go-drive-uploader/internal/config"
	"github.com/jrsteele09/go-drive-uploader/sessions"
	"github.com/jrsteele09/go-drive-uploader/upload"
	"github.com/rs/zerolog/log"
)

// Services are the operations the HTTP surface routes to.
type Services struct {
	AuthFlow *authflow.Service
	Uploads  *upload.Service
	Acquirer *acquire.Acquirer
	Sessions *sessions.Manager
}

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	handler  http.Handler
	routes   []string
	config   config.Config
	authFlow *authflow.Service
	uploads  *upload.Service
	acquirer *acquire.Acquirer
	sessions *sessions.Manager
}

func New(config config.Config, services Services) (*Server, error) {
	if services.AuthFlow == nil || services.Uploads == nil || services.Acquirer == nil || services.Sessions == nil {
		return nil, fmt.Errorf("[Server New] all services are required")
	}

	s := &Server{
		env:      config.GetEnv(),
		mux:      http.NewServeMux(),
		config:   config,
		authFlow: services.AuthFlow,
		uploads:  services.Uploads,
		acquirer: services.Acquirer,
		sessions: services.Sessions,
	}

	s.initRoutes()
	s.logRoutes()

	s.handler = s.mux
	if origins := config.GetAllowedOrigins(); len(origins) > 0 {
		// Preflight requests never reach the mux, so CORS wraps it whole.
		s.handler = cors.New(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   config.GetAllowedMethods(),
			AllowedHeaders:   config.GetAllowedHeaders(),
			AllowCredentials: true,
			MaxAge:           86400,
		}).Handler(s.mux)
	}

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Info().Msgf("[%-19s] %s", displayMethod, path)
}
