package httpserve

import (
	"maparr/internal/webui"
)

func (s *Server) registerRoutes() {
	e := s.echo

	e.GET("/health", s.health)

	api := e.Group("/api")
	api.GET("/docker/status", s.dockerStatus)
	api.GET("/containers", s.listContainers)

	api.POST("/analyze", s.analyze)
	api.GET("/recommendations", s.recommendations)

	api.GET("/jobs", s.listJobs)
	api.GET("/jobs/:id", s.getJob)
	api.GET("/events", s.streamEvents)

	api.GET("/analyses", s.listAnalyses)
	api.GET("/analyses/:id", s.getAnalysis)

	api.POST("/save-mapping", s.saveMapping)
	api.GET("/mappings", s.listMappings)

	api.GET("/manual-paths", s.listManualPaths)
	api.POST("/manual-paths", s.addManualPath)
	api.POST("/manual-paths/batch", s.replaceManualPaths)
	api.DELETE("/manual-paths/:id", s.deleteManualPath)

	e.StaticFS("/", webui.PublicFS)
}
