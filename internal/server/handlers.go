package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hoangv97/memorychat/internal/models"
	"github.com/hoangv97/memorychat/internal/retrieval"
	"github.com/hoangv97/memorychat/internal/storage"
)

type queryErrorResponse struct {
	Error string   `json:"error"`
	Stage string   `json:"stage,omitempty"`
	URLs  []string `json:"urls,omitempty"`
}

func (s *Server) handleEmbed(w http.ResponseWriter, r *http.Request) {
	if err := s.indexer.Ready(); err != nil {
		s.logger.Error("ingestion unavailable", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	var req models.EmbedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("embed request", zap.Int("messages", len(req.Messages)))
	ex, err := s.indexer.Ingest(r.Context(), &req)
	if err != nil {
		s.logger.Error("ingestion failed", zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, models.EmbedResponse{Message: "Done", ExchangeID: ex.ID, SourceURL: ex.SourceURL})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	userID := r.URL.Query().Get("user_id")
	if err := req.Validate(userID); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("query request", zap.String("user_id", userID), zap.String("prompt", req.Prompt))

	res, err := s.engine.Retrieve(r.Context(), req.Prompt, req.ConversationHistory)
	if err != nil {
		s.logger.Error("query failed", zap.Error(err))
		body := queryErrorResponse{Error: err.Error()}
		var se *retrieval.StageError
		if errors.As(err, &se) {
			body.Stage = se.Stage
		}
		if res != nil && res.Aggregation != nil {
			body.URLs = res.Aggregation.Sources
		}
		s.respondJSON(w, statusFor(err), body)
		return
	}

	s.respondJSON(w, http.StatusOK, res.Response(req.Prompt, req.ConversationHistory))
}

func (s *Server) handleGetExchange(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ex, err := s.storage.GetExchange(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Error("get exchange failed", zap.String("id", id), zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, ex)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	count, err := s.storage.CountExchanges(r.Context())
	if err != nil {
		s.logger.Error("health: count exchanges failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"status":    "ok",
		"exchanges": count,
	}
	if len(s.diskPaths) > 0 {
		if n, err := storage.UsageBytes(s.diskPaths...); err == nil {
			resp["disk_usage_bytes"] = n
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// statusFor maps a pipeline error to its HTTP status: validation 400, anything else 500.
// Not found is only meaningful for GET /exchanges/{id}, which checks for it itself.
func statusFor(err error) int {
	if errors.Is(err, models.ErrValidation) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
