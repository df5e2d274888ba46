package handlers

import (
	"net/http"

	"github.com/roach88/rollcall/internal/engine"
	"github.com/roach88/rollcall/internal/model"
	"github.com/roach88/rollcall/internal/policy"
)

// CardsHandler serves card links.
type CardsHandler struct {
	engine *engine.Engine
	clock  policy.Clock
}

// NewCardsHandler creates a new cards handler.
func NewCardsHandler(eng *engine.Engine, clock policy.Clock) *CardsHandler {
	return &CardsHandler{engine: eng, clock: clock}
}

// LinkRequest is the body of POST /cards.
type LinkRequest struct {
	Card string `json:"card"`
	Name string `json:"name"`
}

// ResolveResponse names the holder of a card.
type ResolveResponse struct {
	CardID     string `json:"card_id"`
	PersonName string `json:"person_name"`
}

// List returns every card link, active or not.
func (h *CardsHandler) List(w http.ResponseWriter, r *http.Request) {
	links, err := h.engine.ListCards(r.Context())
	if err != nil {
		respondEngineError(w, err)
		return
	}
	if links == nil {
		links = []model.CardLink{}
	}
	respondJSON(w, http.StatusOK, links)
}

// Link binds a card to a person.
func (h *CardsHandler) Link(w http.ResponseWriter, r *http.Request) {
	var req LinkRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	link, err := h.engine.LinkCard(r.Context(), req.Card, req.Name, h.clock.Now())
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, link)
}

// Resolve returns the person a card is linked to.
func (h *CardsHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	card := model.NormalizeCardID(pathParam(r, "card"))
	name, err := h.engine.ResolveCard(r.Context(), card)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ResolveResponse{CardID: card, PersonName: name})
}

// Unlink deactivates a card's link.
func (h *CardsHandler) Unlink(w http.ResponseWriter, r *http.Request) {
	link, err := h.engine.UnlinkCard(r.Context(), pathParam(r, "card"))
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, link)
}
