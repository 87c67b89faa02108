package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	nderrors "github.com/matzehuels/netdraw/pkg/errors"
	"github.com/matzehuels/netdraw/pkg/netlist"
	"github.com/matzehuels/netdraw/pkg/pipeline"
	"github.com/matzehuels/netdraw/pkg/store"
)

const defaultListLimit = 20

// renderRequest is the POST /api/render body.
type renderRequest struct {
	Netlist json.RawMessage `json:"netlist"`
	Module  string          `json:"module,omitempty"`
	Refresh bool            `json:"refresh,omitempty"`
}

// renderResponse is the render result envelope.
type renderResponse struct {
	ID    string         `json:"id"`
	SVG   string         `json:"svg"`
	Stats pipeline.Stats `json:"stats"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, nderrors.New(nderrors.ErrCodeInvalidNetlist, "decode request: %v", err))
		return
	}

	var nl netlist.Netlist
	if err := json.Unmarshal(req.Netlist, &nl); err != nil || len(nl.Modules) == 0 {
		writeError(w, http.StatusBadRequest, nderrors.New(nderrors.ErrCodeInvalidNetlist, "invalid netlist"))
		return
	}

	result, err := s.runner.Execute(r.Context(), pipeline.Options{
		SkinText: s.skinText,
		Netlist:  &nl,
		Module:   req.Module,
		Engine:   s.engine,
		Refresh:  req.Refresh,
		Logger:   s.logger,
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	d := store.Diagram{
		ID:        uuid.NewString(),
		Module:    req.Module,
		SVG:       result.SVG,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Put(r.Context(), d); err != nil {
		s.logger.Warn("store diagram", "err", err)
	}

	writeJSON(w, http.StatusOK, renderResponse{
		ID:    d.ID,
		SVG:   result.SVG,
		Stats: result.Stats,
	})
}

func (s *Server) handleGetDiagram(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	d, err := s.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, nderrors.New(nderrors.ErrCodeNotFound, "diagram %s", id))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	if r.URL.Query().Get("format") == "svg" {
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write([]byte(d.SVG))
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleListDiagrams(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	diagrams, err := s.store.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	// The listing is an index; drop the (potentially large) bodies.
	for i := range diagrams {
		diagrams[i].SVG = ""
	}
	writeJSON(w, http.StatusOK, diagrams)
}

func statusFor(err error) int {
	switch nderrors.GetCode(err) {
	case nderrors.ErrCodeInvalidNetlist, nderrors.ErrCodeInvalidSkin, nderrors.ErrCodeInvalidOptions:
		return http.StatusBadRequest
	case nderrors.ErrCodeNotFound:
		return http.StatusNotFound
	case nderrors.ErrCodeEngine, nderrors.ErrCodeEngineMissing:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	code := string(nderrors.GetCode(err))
	if code == "" {
		code = string(nderrors.ErrCodeInternal)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: nderrors.UserMessage(err)})
}
