package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/codebattle-go/internal/api/response"
	"github.com/mcoot/codebattle-go/internal/model"
	"github.com/mcoot/codebattle-go/internal/services/challenge"
)

// ChallengeHandler handles challenge catalog endpoints
type ChallengeHandler struct {
	challenges *challenge.Service
}

// NewChallengeHandler creates a new challenge handler
func NewChallengeHandler(challenges *challenge.Service) *ChallengeHandler {
	return &ChallengeHandler{
		challenges: challenges,
	}
}

// List handles GET /api/v1/challenges. Prompts are omitted from the listing;
// players only see a prompt once a match serves them the challenge.
func (h *ChallengeHandler) List(w http.ResponseWriter, r *http.Request) {
	challenges, err := h.challenges.List(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	out := make([]response.Challenge, 0, len(challenges))
	for _, c := range challenges {
		item := response.ChallengeFromModel(c)
		item.Prompt = ""
		out = append(out, item)
	}
	response.JSON(w, http.StatusOK, out)
}

// Get handles GET /api/v1/challenges/{challenge_id}
func (h *ChallengeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.ChallengeID(mux.Vars(r)["challenge_id"])

	c, err := h.challenges.Get(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.ChallengeFromModel(c))
}
