package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/codebattle-go/internal/api/middleware"
	"github.com/mcoot/codebattle-go/internal/api/response"
	"github.com/mcoot/codebattle-go/internal/model"
	"github.com/mcoot/codebattle-go/internal/services/battle"
	"github.com/mcoot/codebattle-go/internal/storage"
)

// MatchHandler handles battle session endpoints
type MatchHandler struct {
	manager *battle.Manager
	storage storage.Storage
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(manager *battle.Manager, storage storage.Storage) *MatchHandler {
	return &MatchHandler{
		manager: manager,
		storage: storage,
	}
}

func matchID(r *http.Request) model.MatchID {
	return model.MatchID(mux.Vars(r)["match_id"])
}

// Join handles POST /api/v1/matches/{match_id}/join.
// Joining confirms readiness; the countdown starts once both players join.
func (h *MatchHandler) Join(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	session, err := h.manager.Join(r.Context(), matchID(r), player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	snapshot, err := session.Snapshot(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.BattleStateFromSnapshot(snapshot))
}

// State handles GET /api/v1/matches/{match_id}/state
func (h *MatchHandler) State(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	session, err := h.manager.Get(matchID(r), player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	snapshot, err := session.Snapshot(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.BattleStateFromSnapshot(snapshot))
}

// Complete handles POST /api/v1/matches/{match_id}/complete.
// The correctness judgement happens upstream of this API; calling this
// endpoint reports an already-judged successful submission.
func (h *MatchHandler) Complete(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	session, err := h.manager.Get(matchID(r), player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	snapshot, err := session.CompleteChallenge(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.BattleStateFromSnapshot(snapshot))
}

// Leave handles POST /api/v1/matches/{match_id}/leave, forfeiting the match
func (h *MatchHandler) Leave(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	if err := h.manager.Leave(r.Context(), matchID(r), player.ID); err != nil {
		WriteError(w, err)
		return
	}
	response.NoContent(w)
}

// Record handles GET /api/v1/matches/{match_id}. It reads the stored record
// rather than a live session, so completed matches stay queryable.
func (h *MatchHandler) Record(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	match, err := h.storage.GetMatch(r.Context(), matchID(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	if !match.HasPlayer(player.ID) {
		WriteError(w, model.ErrNotParticipant)
		return
	}

	response.JSON(w, http.StatusOK, response.MatchRecordFromModel(match))
}
