package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/KaramelBytes/datalens-cli/internal/parser"
	"github.com/KaramelBytes/datalens-cli/internal/pipeline"
)

// RFC 7807 problem types
const (
	TypeUnsupportedFormat = "/errors/unsupported-format"
	TypeEmptyData         = "/errors/empty-data"
	TypeNoTabular         = "/errors/no-tabular-structure"
	TypeMalformed         = "/errors/malformed-input"
	TypePayloadTooLarge   = "/errors/payload-too-large"
	TypeSuperseded        = "/errors/superseded"
	TypeNotFound          = "/errors/not-found"
	TypeBadRequest        = "/errors/bad-request"
	TypeRateLimit         = "/errors/rate-limit"
	TypeTimeout           = "/errors/timeout"
	TypeInternal          = "/errors/internal"
)

// Problem is an RFC 7807 problem document.
type Problem struct {
	Type       string
	Title      string
	Status     int
	Detail     string
	Instance   string
	Extensions map[string]any
}

func newProblem(status int, typ, title, detail, instance string) *Problem {
	return &Problem{Type: typ, Title: title, Status: status, Detail: detail, Instance: instance, Extensions: map[string]any{}}
}

func (p *Problem) MarshalJSON() ([]byte, error) {
	data := map[string]any{
		"type":   p.Type,
		"title":  p.Title,
		"status": p.Status,
	}
	if p.Detail != "" {
		data["detail"] = p.Detail
	}
	if p.Instance != "" {
		data["instance"] = p.Instance
	}
	for k, v := range p.Extensions {
		data[k] = v
	}
	return json.Marshal(data)
}

// outcome labels a profiling result for metrics.
func outcome(err error) string {
	var tooLarge *http.MaxBytesError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, parser.ErrUnsupported):
		return "unsupported"
	case errors.Is(err, parser.ErrInputTooLarge), errors.As(err, &tooLarge):
		return "too_large"
	case errors.Is(err, parser.ErrEmptyData):
		return "empty"
	case errors.Is(err, parser.ErrNoTabularStructure):
		return "no_structure"
	case errors.Is(err, pipeline.ErrSuperseded):
		return "superseded"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	}
	var mal *parser.MalformedInputError
	if errors.As(err, &mal) {
		return "malformed"
	}
	return "error"
}

// problemFor maps a profiling error to its problem document.
func problemFor(err error, r *http.Request) *Problem {
	path := r.URL.Path
	var p *Problem
	switch outcome(err) {
	case "unsupported":
		p = newProblem(http.StatusUnsupportedMediaType, TypeUnsupportedFormat, "Unsupported Format", err.Error(), path)
		var uf *parser.UnsupportedFormatError
		if errors.As(err, &uf) {
			p.Extensions["extension"] = uf.Ext
		}
	case "too_large":
		p = newProblem(http.StatusRequestEntityTooLarge, TypePayloadTooLarge, "Payload Too Large", "The uploaded file exceeds the maximum allowed size", path)
	case "empty":
		p = newProblem(http.StatusUnprocessableEntity, TypeEmptyData, "Empty Data", err.Error(), path)
	case "no_structure":
		p = newProblem(http.StatusUnprocessableEntity, TypeNoTabular, "No Tabular Structure", err.Error(), path)
	case "malformed":
		p = newProblem(http.StatusBadRequest, TypeMalformed, "Malformed Input", err.Error(), path)
	case "superseded":
		p = newProblem(http.StatusConflict, TypeSuperseded, "Superseded", "A newer upload replaced this result", path)
	case "cancelled":
		p = newProblem(http.StatusGatewayTimeout, TypeTimeout, "Request Timeout", "The request was cancelled before profiling finished", path)
	default:
		p = newProblem(http.StatusInternalServerError, TypeInternal, "Internal Server Error", "An unexpected error occurred", path)
	}
	return p
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, p *Problem) {
	if id := middleware.GetReqID(r.Context()); id != "" {
		p.Extensions["trace_id"] = id
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		s.log.ErrorContext(r.Context(), "write problem", "error", err)
	}
}
