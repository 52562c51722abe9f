package server

import (
	"log"
	"sync"

	"github.com/gin-gonic/gin"

	"bytebook/internal"
	"bytebook/internal/config"
	"bytebook/internal/pipeline"
	"bytebook/internal/storage"
)

// batch holds the artifacts of the most recent upload so the operator
// can download them. Replaced wholesale on the next upload; the core
// pipeline itself keeps no state between calls.
type batch struct {
	ID    string
	Split bool
	Keys  []string
	Data  map[string][]internal.Record
}

type Server struct {
	cfg       config.Config
	db        *storage.DB
	processor *pipeline.Processor

	mu      sync.Mutex
	current *batch
}

func New(db *storage.DB, cfg config.Config) *Server {
	return &Server{
		cfg:       cfg,
		db:        db,
		processor: pipeline.NewProcessor(db, cfg),
	}
}

func (s *Server) Router() *gin.Engine {
	r := gin.Default()
	r.MaxMultipartMemory = int64(s.cfg.MaxUploadMB) << 20

	api := r.Group("/api")
	{
		api.POST("/process", s.handleProcess)

		api.GET("/results", s.handleListResults)
		api.GET("/results/archive", s.handleArchive)
		api.GET("/results/:key", s.handleResult)
		api.GET("/results/:key/files", s.handleResultFiles)
		api.GET("/results/:key/files/:n", s.handleResultFile)

		api.GET("/parts", s.handleListParts)
		api.GET("/parts/export", s.handlePartsExport)

		api.GET("/cnpj-options", s.handleListOptions)
		api.POST("/cnpj-options", s.handleCreateOption)
		api.PUT("/cnpj-options/:id", s.handleUpdateOption)
		api.DELETE("/cnpj-options/:id", s.handleDeleteOption)

		api.GET("/analytics/ncm", s.handleNCMCounts)
		api.GET("/analytics/attributes", s.handleAttributeUsage)
		api.GET("/analytics/ncm-attributes", s.handleAssociations)
		api.GET("/attributes/ncm/:ncm", s.handleAttributesForNCM)

		api.GET("/admin/tables", s.handleListTables)
		api.POST("/admin/load/:table", s.handleLoadTable)
		api.POST("/admin/query", s.handleQuery)
	}

	return r
}

func (s *Server) Run() error {
	log.Printf("bytebook listening on %s (db=%s)", s.cfg.ListenAddr, s.cfg.DBPath)
	return s.Router().Run(s.cfg.ListenAddr)
}

func (s *Server) setBatch(b *batch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = b
}

func (s *Server) getBatch() *batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}
