package reports

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	apianalysis "controlbot/pkg/api/analysis"
	"controlbot/pkg/api/response"
	"controlbot/pkg/core/document"
	"controlbot/pkg/core/pipeline"
	"controlbot/pkg/core/report"
	"controlbot/pkg/models"
)

// Pipeline runs analysis and narration.
type Pipeline interface {
	Analyze(ctx context.Context, table models.RawTable, req pipeline.MappingRequest) (*pipeline.AnalysisResult, error)
	Report(ctx context.Context, result *pipeline.AnalysisResult, req pipeline.ReportRequest) (*models.ReportPayload, error)
}

type Request struct {
	Table   models.RawTable         `json:"table"`
	Mapping pipeline.MappingRequest `json:"mapping"`
	Report  pipeline.ReportRequest  `json:"report"`
}

// Response is the json format. Error is set when the narrative is missing;
// the tables are complete either way.
type Response struct {
	Analysis *pipeline.AnalysisResult `json:"analysis"`
	Report   *models.ReportPayload    `json:"report"`
	Error    *GenerationFailure       `json:"error,omitempty"`
}

type GenerationFailure struct {
	Reason   report.FailureReason `json:"reason"`
	Attempts int                  `json:"attempts"`
	Message  string               `json:"message"`
}

// NarrativeHeader tells document downloads whether the model text is present.
const NarrativeHeader = "X-Narrative-Status"

type Handler struct {
	pipeline Pipeline
	uploads  *apianalysis.Handler
}

func NewHandler(p Pipeline, uploads *apianalysis.Handler) *Handler {
	return &Handler{pipeline: p, uploads: uploads}
}

func (h *Handler) maxBodyBytes() int64 {
	if h.uploads == nil {
		return 0
	}
	return h.uploads.MaxUploadBytes()
}

// HandleReport accepts a JSON Request, or a multipart upload with the
// report fields as form values. The format query parameter selects json
// (default), markdown, html or xlsx.
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	var writer document.Writer
	if format != "" && format != "json" {
		var err error
		if writer, err = document.ForFormat(format); err != nil {
			response.BadRequest(w, r, err.Error())
			return
		}
	}

	var req Request
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") && h.uploads != nil {
		table, mreq, ok := h.uploads.ReadUpload(w, r)
		if !ok {
			return
		}
		req = Request{Table: table, Mapping: mreq, Report: reportFromForm(r)}
	} else if !response.DecodeJSON(w, r, h.maxBodyBytes(), &req) {
		return
	}
	if len(req.Table.Headers) == 0 {
		response.BadRequest(w, r, "table.headers are required")
		return
	}

	ctx := r.Context()
	res, err := h.pipeline.Analyze(ctx, req.Table, req.Mapping)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	payload, err := h.pipeline.Report(ctx, res, req.Report)
	var gerr *report.GenerationError
	switch {
	case err == nil:
	case errors.As(err, &gerr) && payload != nil:
		zerolog.Ctx(ctx).Warn().Err(err).Str("run_id", res.RunID).Msg("serving report without narrative")
	default:
		response.Error(w, r, err)
		return
	}

	if writer == nil {
		out := Response{Analysis: res, Report: payload}
		if gerr != nil {
			out.Error = &GenerationFailure{Reason: gerr.Reason, Attempts: gerr.Attempts, Message: gerr.Error()}
		}
		response.JSON(w, r, http.StatusOK, out)
		return
	}

	data, err := writer.Write(ctx, payload)
	if err != nil {
		response.Error(w, r, fmt.Errorf("render %s: %w", format, err))
		return
	}
	status := "available"
	if !payload.NarrativeAvailable {
		status = "unavailable"
	}
	w.Header().Set("Content-Type", writer.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="controlbot-%s%s"`, payload.ID, writer.Extension()))
	w.Header().Set(NarrativeHeader, status)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to write document")
	}
}

func reportFromForm(r *http.Request) pipeline.ReportRequest {
	req := pipeline.ReportRequest{
		Type:     r.FormValue("type"),
		Language: r.FormValue("language"),
		Context:  r.FormValue("context"),
		Currency: r.FormValue("currency"),
		Provider: r.FormValue("provider"),
	}
	switch strings.ToLower(r.FormValue("include_recommendations")) {
	case "true", "1", "yes", "ja":
		yes := true
		req.IncludeRecommendations = &yes
	case "false", "0", "no", "nein":
		no := false
		req.IncludeRecommendations = &no
	}
	return req
}
