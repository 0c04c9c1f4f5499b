package analysis

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"controlbot/pkg/api/response"
	"controlbot/pkg/core/ingest"
	"controlbot/pkg/core/pipeline"
	"controlbot/pkg/core/schema"
	"controlbot/pkg/models"
)

// Analyzer runs the numeric stages of a pipeline.
type Analyzer interface {
	Analyze(ctx context.Context, table models.RawTable, req pipeline.MappingRequest) (*pipeline.AnalysisResult, error)
}

type MappingRequest struct {
	Headers []string `json:"headers"`
	pipeline.MappingRequest
}

type MappingResponse struct {
	Template        string              `json:"template,omitempty"`
	Mapping         schema.FieldMapping `json:"mapping"`
	MissingRequired []schema.Field      `json:"missing_required"`
}

type AnalysisRequest struct {
	Table   models.RawTable         `json:"table"`
	Mapping pipeline.MappingRequest `json:"mapping"`
}

type Handler struct {
	analyzer       Analyzer
	maxUploadBytes int64
}

func NewHandler(analyzer Analyzer, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &Handler{analyzer: analyzer, maxUploadBytes: maxUploadBytes}
}

// MaxUploadBytes is the body limit for uploads and JSON requests.
func (h *Handler) MaxUploadBytes() int64 {
	return h.maxUploadBytes
}

// HandleMapping proposes a mapping for a header row so the user can review
// it before uploading the data.
func (h *Handler) HandleMapping(w http.ResponseWriter, r *http.Request) {
	var req MappingRequest
	if !response.DecodeJSON(w, r, h.maxUploadBytes, &req) {
		return
	}
	if len(req.Headers) == 0 {
		response.BadRequest(w, r, "headers are required")
		return
	}

	mapping, template, err := pipeline.ResolveMapping(req.Headers, req.MappingRequest)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	missing := mapping.MissingRequired()
	if missing == nil {
		missing = []schema.Field{}
	}
	response.JSON(w, r, http.StatusOK, MappingResponse{Template: template, Mapping: mapping, MissingRequired: missing})
}

func (h *Handler) HandleAnalysis(w http.ResponseWriter, r *http.Request) {
	var req AnalysisRequest
	if !response.DecodeJSON(w, r, h.maxUploadBytes, &req) {
		return
	}
	if len(req.Table.Headers) == 0 {
		response.BadRequest(w, r, "table.headers are required")
		return
	}

	res, err := h.analyzer.Analyze(r.Context(), req.Table, req.Mapping)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, res)
}

// HandleUpload analyzes a multipart file upload. Form fields: file,
// template, sheet and any number of map=field=header overrides.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	table, mreq, ok := h.ReadUpload(w, r)
	if !ok {
		return
	}
	res, err := h.analyzer.Analyze(r.Context(), table, mreq)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, res)
}

// ReadUpload parses the multipart form. On failure the response has
// already been written.
func (h *Handler) ReadUpload(w http.ResponseWriter, r *http.Request) (models.RawTable, pipeline.MappingRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		response.BadRequest(w, r, "invalid upload: "+err.Error())
		return models.RawTable{}, pipeline.MappingRequest{}, false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, r, "file is required")
		return models.RawTable{}, pipeline.MappingRequest{}, false
	}
	defer file.Close()

	format, err := ingest.DetectFormat(header.Filename)
	if err != nil {
		response.BadRequest(w, r, err.Error())
		return models.RawTable{}, pipeline.MappingRequest{}, false
	}
	var table models.RawTable
	if sheet := r.FormValue("sheet"); sheet != "" && format == ingest.FormatXLSX {
		table, err = ingest.ReadXLSX(file, header.Filename, sheet)
	} else {
		table, err = ingest.Read(file, header.Filename, format)
	}
	if err != nil {
		response.BadRequest(w, r, err.Error())
		return models.RawTable{}, pipeline.MappingRequest{}, false
	}

	overrides, err := ParseOverrides(r.MultipartForm.Value["map"])
	if err != nil {
		response.BadRequest(w, r, err.Error())
		return models.RawTable{}, pipeline.MappingRequest{}, false
	}
	zerolog.Ctx(r.Context()).Debug().
		Str("file", header.Filename).
		Str("format", string(format)).
		Int("rows", table.Len()).
		Msg("upload parsed")
	return table, pipeline.MappingRequest{Template: r.FormValue("template"), Overrides: overrides}, true
}

// ParseOverrides reads "field=header" pairs. The header may itself contain
// '='; only the first one separates.
func ParseOverrides(pairs []string) (map[schema.Field]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[schema.Field]string, len(pairs))
	for _, p := range pairs {
		field, header, ok := strings.Cut(p, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid override %q (expected field=header)", p)
		}
		out[schema.Field(field)] = header
	}
	return out, nil
}
