package handler

import (
	"net/http"

	"github.com/mcoot/codebattle-go/internal/api/middleware"
	"github.com/mcoot/codebattle-go/internal/api/response"
	"github.com/mcoot/codebattle-go/internal/services/matchmaking"
)

// QueueHandler handles matchmaking queue endpoints
type QueueHandler struct {
	matchmaking *matchmaking.Controller
}

// NewQueueHandler creates a new queue handler
func NewQueueHandler(matchmaking *matchmaking.Controller) *QueueHandler {
	return &QueueHandler{
		matchmaking: matchmaking,
	}
}

// Join handles POST /api/v1/queue
func (h *QueueHandler) Join(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	if err := h.matchmaking.Enqueue(r.Context(), player.ID); err != nil {
		WriteError(w, err)
		return
	}

	status, err := h.matchmaking.Status(r.Context(), player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, response.QueueStatusFromService(status))
}

// Status handles GET /api/v1/queue
func (h *QueueHandler) Status(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	status, err := h.matchmaking.Status(r.Context(), player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.QueueStatusFromService(status))
}

// Leave handles DELETE /api/v1/queue
func (h *QueueHandler) Leave(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	if err := h.matchmaking.Cancel(r.Context(), player.ID); err != nil {
		WriteError(w, err)
		return
	}
	response.NoContent(w)
}
