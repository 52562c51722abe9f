package server

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bytebook/internal"
	"bytebook/internal/pipeline"
)

type sheetView struct {
	File              string `json:"file"`
	Sheet             string `json:"sheet"`
	Key               string `json:"key,omitempty"`
	Rows              int    `json:"rows"`
	DuplicatesDropped int    `json:"duplicatesDropped,omitempty"`
	Persisted         bool   `json:"persisted"`
	NewParts          int    `json:"newParts"`
	NewAttributes     int    `json:"newAttributes"`
	NewAssociations   int    `json:"newAssociations"`
	Error             string `json:"error,omitempty"`
	PersistError      string `json:"persistError,omitempty"`
}

func (s *Server) handleProcess(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("read multipart form: %v", err)})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files uploaded (field: files)"})
		return
	}

	split := s.cfg.SplitLotes
	if v := c.Query("split"); v != "" {
		split = v == "1" || strings.EqualFold(v, "true")
	}

	rootID := ""
	if v := c.Query("cnpj_option"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cnpj_option must be an option id"})
			return
		}
		opt, err := s.db.GetCNPJOption(id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if opt == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("cnpj option %d not found", id)})
			return
		}
		rootID = opt.CpfCnpjRaiz
	}

	persist := true
	if v := c.Query("persist"); v != "" {
		persist = v == "1" || strings.EqualFold(v, "true")
	}

	b := &batch{ID: uuid.NewString(), Split: split, Data: map[string][]internal.Record{}}
	opts := pipeline.Options{CpfCnpjRaiz: rootID, Persist: persist}

	var sheets []sheetView
	for _, fh := range files {
		blob, err := readUpload(fh)
		if err != nil {
			sheets = append(sheets, sheetView{File: fh.Filename, Error: fmt.Sprintf("read upload: %v", err)})
			continue
		}
		outcomes, err := s.processor.ProcessFile(fh.Filename, blob, opts)
		if err != nil {
			sheets = append(sheets, sheetView{File: fh.Filename, Error: err.Error()})
			continue
		}
		for _, o := range outcomes {
			view := sheetView{
				File:              o.File,
				Sheet:             o.Sheet,
				Rows:              o.Rows,
				DuplicatesDropped: o.DuplicatesDropped,
				Persisted:         o.Persisted,
				NewParts:          o.NewParts,
				NewAttributes:     o.NewAttributes,
				NewAssociations:   o.NewAssociations,
			}
			if o.PersistErr != nil {
				view.PersistError = o.PersistErr.Error()
			}
			if o.Err != nil {
				view.Error = o.Err.Error()
			} else {
				view.Key = o.Key
				// same file name uploaded twice: last sheet wins, key listed once
				if _, seen := b.Data[o.Key]; !seen {
					b.Keys = append(b.Keys, o.Key)
				}
				b.Data[o.Key] = o.Records
			}
			sheets = append(sheets, view)
		}
	}

	s.setBatch(b)
	c.JSON(http.StatusOK, gin.H{"batch": b.ID, "split": split, "sheets": sheets})
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (s *Server) handleListResults(c *gin.Context) {
	b := s.getBatch()
	if b == nil {
		c.JSON(http.StatusOK, gin.H{"batch": nil, "results": []string{}})
		return
	}
	type result struct {
		Key     string `json:"key"`
		Records int    `json:"records"`
		Files   int    `json:"files"`
	}
	results := make([]result, 0, len(b.Keys))
	for _, key := range b.Keys {
		records := b.Data[key]
		files := 1
		if b.Split {
			files = (len(records) + s.loteSize() - 1) / s.loteSize()
		}
		results = append(results, result{Key: key, Records: len(records), Files: files})
	}
	c.JSON(http.StatusOK, gin.H{"batch": b.ID, "split": b.Split, "results": results})
}

func (s *Server) loteSize() int {
	if s.cfg.LoteSize > 0 {
		return s.cfg.LoteSize
	}
	return pipeline.DefaultLoteSize
}

func (s *Server) batchRecords(c *gin.Context) (*batch, []internal.Record, bool) {
	b := s.getBatch()
	if b == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no processed batch in session"})
		return nil, nil, false
	}
	records, ok := b.Data[c.Param("key")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("unknown result key %q", c.Param("key"))})
		return nil, nil, false
	}
	return b, records, true
}

func (s *Server) handleResult(c *gin.Context) {
	_, records, ok := s.batchRecords(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) handleResultFiles(c *gin.Context) {
	b, records, ok := s.batchRecords(c)
	if !ok {
		return
	}
	files, err := pipeline.LoteFiles(c.Param("key"), records, b.Split, s.loteSize())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}
	c.JSON(http.StatusOK, gin.H{"files": names})
}

func (s *Server) handleResultFile(c *gin.Context) {
	b, records, ok := s.batchRecords(c)
	if !ok {
		return
	}
	n, err := strconv.Atoi(c.Param("n"))
	if err != nil || n < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file number must be a positive integer"})
		return
	}
	files, err := pipeline.LoteFiles(c.Param("key"), records, b.Split, s.loteSize())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if n > len(files) {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("file %d of %d", n, len(files))})
		return
	}
	f := files[n-1]
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.Name))
	c.Data(http.StatusOK, "application/json", f.Data)
}

func (s *Server) handleArchive(c *gin.Context) {
	b := s.getBatch()
	if b == nil || len(b.Keys) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no processed batch in session"})
		return
	}
	var files []pipeline.ExportFile
	for _, key := range b.Keys {
		fs, err := pipeline.LoteFiles(key, b.Data[key], b.Split, s.loteSize())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		files = append(files, fs...)
	}
	blob, err := pipeline.BundleZip(files)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="todos_jsons.zip"`)
	c.Data(http.StatusOK, "application/zip", blob)
}

func (s *Server) handleListParts(c *gin.Context) {
	parts, err := s.db.ListParts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	type partView struct {
		PartNumber      string `json:"partNumber"`
		Descricao       string `json:"descricao"`
		NCM             string `json:"ncm"`
		AtributosUsados string `json:"atributosUsados"`
	}
	out := make([]partView, 0, len(parts))
	for _, p := range parts {
		out = append(out, partView{p.PartNumber, p.Descricao, p.NCM, p.AtributosUsados})
	}
	c.JSON(http.StatusOK, gin.H{"total": len(out), "parts": out})
}

func (s *Server) handlePartsExport(c *gin.Context) {
	parts, err := s.db.ListParts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	blob, err := pipeline.PartsXLSX(parts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="base_de_pecas.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", blob)
}
