package server

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"bytebook/internal/storage"
)

type optionRequest struct {
	Name        string `json:"name" binding:"required"`
	CpfCnpjRaiz string `json:"cpfCnpjRaiz" binding:"required"`
}

func (s *Server) handleListOptions(c *gin.Context) {
	options, err := s.db.ListCNPJOptions()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"options": options})
}

func (s *Server) handleCreateOption(c *gin.Context) {
	var req optionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and cpfCnpjRaiz are required"})
		return
	}
	id, err := s.db.InsertCNPJOption(strings.TrimSpace(req.Name), strings.TrimSpace(req.CpfCnpjRaiz))
	if errors.Is(err, storage.ErrNameTaken) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (s *Server) optionID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
		return 0, false
	}
	return id, true
}

func (s *Server) handleUpdateOption(c *gin.Context) {
	id, ok := s.optionID(c)
	if !ok {
		return
	}
	var req optionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and cpfCnpjRaiz are required"})
		return
	}
	err := s.db.UpdateCNPJOption(id, strings.TrimSpace(req.Name), strings.TrimSpace(req.CpfCnpjRaiz))
	if errors.Is(err, storage.ErrNameTaken) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

func (s *Server) handleDeleteOption(c *gin.Context) {
	id, ok := s.optionID(c)
	if !ok {
		return
	}
	if err := s.db.DeleteCNPJOption(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

// --- analytics and lookup ---

var reNCM = regexp.MustCompile(`\b(\d{8})\b`)

func (s *Server) handleNCMCounts(c *gin.Context) {
	counts, err := s.db.NCMCounts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ncm": counts})
}

func (s *Server) handleAttributeUsage(c *gin.Context) {
	usage, err := s.db.AttributeUsage()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"attributes": usage})
}

func (s *Server) handleAssociations(c *gin.Context) {
	grouped, err := s.db.AssociationsByNCM()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"associations": grouped})
}

// handleAttributesForNCM accepts either a bare NCM or free text with
// an 8-digit code somewhere in it ("quais atributos para 84143091?").
func (s *Server) handleAttributesForNCM(c *gin.Context) {
	query := strings.TrimSpace(c.Param("ncm"))
	ncm := query
	if m := reNCM.FindStringSubmatch(query); m != nil {
		ncm = m[1]
	}
	attrs, err := s.db.AttributesForNCM(ncm)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ncm": ncm, "attributes": attrs})
}

// --- admin ---

func (s *Server) handleListTables(c *gin.Context) {
	tables, err := s.db.ListTables()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tables": tables})
}

// handleLoadTable bulk-loads an uploaded spreadsheet into the named
// table. The ncm_x_atrib target expands wide NCM×attribute sheets
// into pairs; any other table is filled column by column.
func (s *Server) handleLoadTable(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file uploaded (field: file)"})
		return
	}
	blob, err := readUpload(fh)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("read upload: %v", err)})
		return
	}
	outcome, err := s.processor.LoadFile(c.Param("table"), fh.Filename, blob)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"table":          outcome.Table,
		"rows":           outcome.Rows,
		"inserted":       outcome.Inserted,
		"ignoredColumns": outcome.IgnoredColumns,
	})
}

type queryRequest struct {
	Query string `json:"query" binding:"required"`
}

// handleQuery runs read-only SQL. Mutating statements stay on the
// db:query CLI command.
func (s *Server) handleQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(req.Query)), "select") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only SELECT statements are allowed here"})
		return
	}
	cols, rows, err := s.db.Query(req.Query)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"columns": cols, "rows": rows})
}
