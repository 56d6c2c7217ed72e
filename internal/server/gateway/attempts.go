package gateway

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/photoform/internal/common"
	"github.com/dmitrijs2005/photoform/internal/models"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type taskResponse struct {
	Position       int               `json:"position"`
	FileName       string            `json:"file_name"`
	ContentType    string            `json:"content_type"`
	Size           int64             `json:"size"`
	DestinationKey string            `json:"destination_key"`
	Status         models.TaskStatus `json:"status"`
	URL            string            `json:"url,omitempty"`
	Error          string            `json:"error,omitempty"`
}

type attemptResponse struct {
	ID        string         `json:"id"`
	FormID    string         `json:"form_id"`
	Outcome   models.Outcome `json:"outcome"`
	FileCount int            `json:"file_count"`
	URLs      []string       `json:"urls,omitempty"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	Tasks     []taskResponse `json:"tasks"`
}

func (h *Handler) attempt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	if _, err := uuid.Parse(id); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid attempt id"})
		return
	}

	a, tasks, err := h.opts.Attempts.Get(ctx, id)
	if errors.Is(err, common.ErrorNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "attempt not found"})
		return
	}
	if err != nil {
		h.logger.Error(ctx, "attempt lookup failed", "request_id", RequestID(ctx), "attempt_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, attemptResponse{
		ID:        a.ID,
		FormID:    a.FormID,
		Outcome:   a.Outcome,
		FileCount: a.FileCount,
		URLs:      a.URLs,
		Error:     a.Error,
		CreatedAt: a.CreatedAt,
		Tasks: lo.Map(tasks, func(t models.TaskRecord, _ int) taskResponse {
			return taskResponse{
				Position:       t.Position,
				FileName:       t.FileName,
				ContentType:    t.ContentType,
				Size:           t.Size,
				DestinationKey: t.DestinationKey,
				Status:         t.Status,
				URL:            t.URL,
				Error:          t.Error,
			}
		}),
	})
}
