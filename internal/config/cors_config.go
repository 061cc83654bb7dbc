package config

type CorsConfig interface {
	GetAllowedOrigins() []string
	GetAllowedMethods() []string
	GetAllowedHeaders() []string
}

var _ CorsConfig = mainConfig{}

func (s *settings) GetAllowedOrigins() []string {
	return s.AllowedOrigins
}

func (s *settings) GetAllowedMethods() []string {
	return []string{"GET", "POST", "OPTIONS"}
}

func (s *settings) GetAllowedHeaders() []string {
	return []string{"Content-Type", "Authorization"}
}
