// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/poiesic/semindex/core"
)

// retryAfterSeconds is sent with 503 responses while a build is running.
const retryAfterSeconds = 5

// Handlers serves the HTTP API.
type Handlers struct {
	svc            Service
	defaultResults int
	logger         *slog.Logger
}

// NewHandlers creates the API handlers.
func NewHandlers(svc Service, defaultResults int, logger *slog.Logger) *Handlers {
	if defaultResults <= 0 {
		defaultResults = 5
	}
	return &Handlers{
		svc:            svc,
		defaultResults: defaultResults,
		logger:         logger.With("component", "server"),
	}
}

type resultJSON struct {
	ID     string  `json:"id"`
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Score  float32 `json:"score"`
}

type searchResponse struct {
	Type    string       `json:"type"`
	Query   string       `json:"query"`
	Results []resultJSON `json:"results"`
	Total   int          `json:"total"`
}

type regenerateResponse struct {
	Type       string    `json:"type"`
	Entries    int       `json:"entries"`
	Dimensions int       `json:"dimensions"`
	BuildID    string    `json:"build_id"`
	BuiltAt    time.Time `json:"built_at"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	tag := r.URL.Query().Get("t")
	query := r.URL.Query().Get("q")

	n := h.defaultResults
	if s := r.URL.Query().Get("n"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			h.writeError(w, fmt.Errorf("%w: n must be an integer", core.ErrInvalidParameter))
			return
		}
		n = v
	}
	if tag == "" {
		h.writeError(w, fmt.Errorf("%w: missing query parameter 't'", core.ErrInvalidParameter))
		return
	}
	if query == "" {
		h.writeError(w, fmt.Errorf("%w: missing query parameter 'q'", core.ErrInvalidParameter))
		return
	}

	results, err := h.svc.Search(r.Context(), tag, query, n)
	if err != nil {
		h.writeError(w, err)
		return
	}

	out := make([]resultJSON, len(results))
	for i, res := range results {
		out[i] = resultJSON{
			ID:     strconv.FormatUint(uint64(res.Entry.Id), 10),
			Text:   res.Entry.Text,
			Source: res.Entry.Source,
			Score:  res.Score,
		}
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Type:    tag,
		Query:   query,
		Results: out,
		Total:   len(out),
	})
}

func (h *Handlers) HandleRegenerate(w http.ResponseWriter, r *http.Request) {
	tag := r.URL.Query().Get("t")
	if tag == "" {
		h.writeError(w, fmt.Errorf("%w: missing query parameter 't'", core.ErrInvalidParameter))
		return
	}

	idx, err := h.svc.Regenerate(r.Context(), tag)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, regenerateResponse{
		Type:       tag,
		Entries:    idx.Len(),
		Dimensions: idx.Dimensions,
		BuildID:    idx.BuildID,
		BuiltAt:    idx.BuiltAt,
	})
}

func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"types": h.svc.Status(),
	})
}

// writeError maps err onto a status code. Failures that are not the
// caller's fault are reported as an unavailable index.
func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrUnknownType):
		writeJSON(w, http.StatusNotFound, errorResponse{err.Error()})
	case errors.Is(err, core.ErrTypeDisabled):
		writeJSON(w, http.StatusConflict, errorResponse{err.Error()})
	case errors.Is(err, core.ErrInvalidParameter):
		writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})
	case errors.Is(err, core.ErrBuildInProgress):
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{"index build in progress, retry shortly"})
	default:
		h.logger.Error("request failed", "err", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{"index unavailable, try regenerate"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
