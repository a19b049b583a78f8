// Package handlers exposes the town registry and join surface over HTTP.
// Handlers stay thin: decode, delegate to the registry or town state, encode.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/meetgrid/townsquare/internal/town"
)

// API holds the REST handlers for town management and joining.
type API struct {
	registry *town.Registry
	logger   *zap.Logger
}

// NewAPI creates an API.
//
// Precondition: registry and logger must be non-nil.
func NewAPI(registry *town.Registry, logger *zap.Logger) *API {
	return &API{
		registry: registry,
		logger:   logger,
	}
}

// Router builds the route table. ws, when non-nil, is mounted at /ws for
// connection upgrades.
func (a *API) Router(ws http.Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/towns", a.handleListTowns).Methods(http.MethodGet)
	r.HandleFunc("/towns", a.handleCreateTown).Methods(http.MethodPost)
	r.HandleFunc("/towns/{townID}", a.handleUpdateTown).Methods(http.MethodPatch)
	r.HandleFunc("/towns/{townID}", a.handleDeleteTown).Methods(http.MethodDelete)
	r.HandleFunc("/towns/{townID}/sessions", a.handleJoinTown).Methods(http.MethodPost)
	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	if ws != nil {
		r.Handle("/ws", ws)
	}
	return r
}

type townSummaryResponse struct {
	TownID       string `json:"townID"`
	FriendlyName string `json:"friendlyName"`
	Occupancy    int    `json:"currentOccupancy"`
	Capacity     int    `json:"maximumOccupancy"`
}

type listTownsResponse struct {
	Towns []townSummaryResponse `json:"towns"`
}

func (a *API) handleListTowns(w http.ResponseWriter, r *http.Request) {
	summaries := a.registry.PublicTowns()
	resp := listTownsResponse{Towns: make([]townSummaryResponse, 0, len(summaries))}
	for _, s := range summaries {
		resp.Towns = append(resp.Towns, townSummaryResponse{
			TownID:       s.ID,
			FriendlyName: s.FriendlyName,
			Occupancy:    s.Occupancy,
			Capacity:     s.Capacity,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type createTownRequest struct {
	FriendlyName     string `json:"friendlyName"`
	IsPubliclyListed bool   `json:"isPubliclyListed"`
}

type createTownResponse struct {
	TownID         string `json:"townID"`
	UpdatePassword string `json:"townUpdatePassword"`
}

func (a *API) handleCreateTown(w http.ResponseWriter, r *http.Request) {
	var req createTownRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	state, password, err := a.registry.CreateTown(req.FriendlyName, req.IsPubliclyListed)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	a.logger.Info("town created",
		zap.String("town", state.ID),
		zap.String("friendly_name", req.FriendlyName),
		zap.Bool("public", req.IsPubliclyListed),
	)
	writeJSON(w, http.StatusOK, createTownResponse{
		TownID:         state.ID,
		UpdatePassword: password,
	})
}

type updateTownRequest struct {
	Password         string  `json:"townUpdatePassword"`
	FriendlyName     *string `json:"friendlyName,omitempty"`
	IsPubliclyListed *bool   `json:"isPubliclyListed,omitempty"`
}

func (a *API) handleUpdateTown(w http.ResponseWriter, r *http.Request) {
	townID := mux.Vars(r)["townID"]
	var req updateTownRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	err := a.registry.UpdateTown(townID, req.Password, req.FriendlyName, req.IsPubliclyListed)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

type deleteTownRequest struct {
	Password string `json:"townUpdatePassword"`
}

func (a *API) handleDeleteTown(w http.ResponseWriter, r *http.Request) {
	townID := mux.Vars(r)["townID"]
	var req deleteTownRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := a.registry.DeleteTown(townID, req.Password); err != nil {
		writeRegistryError(w, err)
		return
	}
	a.logger.Info("town deleted", zap.String("town", townID))
	writeJSON(w, http.StatusOK, struct{}{})
}

type joinTownRequest struct {
	UserName string `json:"userName"`
}

type joinParticipantResponse struct {
	ID   string `json:"id"`
	Name string `json:"userName"`
}

type joinAreaResponse struct {
	Label       string   `json:"label"`
	Topic       string   `json:"topic"`
	OccupantIDs []string `json:"occupantIDs"`
}

type joinTownResponse struct {
	ParticipantID    string                    `json:"participantID"`
	SessionToken     string                    `json:"sessionToken"`
	VideoToken       string                    `json:"videoToken"`
	FriendlyName     string                    `json:"friendlyName"`
	IsPubliclyListed bool                      `json:"isPubliclyListed"`
	Participants     []joinParticipantResponse `json:"currentParticipants"`
	Areas            []joinAreaResponse        `json:"conversationAreas"`
}

func (a *API) handleJoinTown(w http.ResponseWriter, r *http.Request) {
	townID := mux.Vars(r)["townID"]
	var req joinTownRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.UserName == "" {
		writeError(w, http.StatusBadRequest, "userName must not be empty")
		return
	}

	state, ok := a.registry.TownByID(townID)
	if !ok {
		writeError(w, http.StatusNotFound, town.ErrTownNotFound.Error())
		return
	}
	if state.Occupancy() >= state.Capacity() {
		writeError(w, http.StatusConflict, town.ErrTownFull.Error())
		return
	}

	p := town.NewParticipant(req.UserName)
	sess, err := state.Join(r.Context(), p)
	if err != nil {
		a.logger.Error("join failed",
			zap.String("town", townID),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "could not provision video access")
		return
	}

	resp := joinTownResponse{
		ParticipantID:    p.ID,
		SessionToken:     sess.Token,
		VideoToken:       sess.VideoToken,
		FriendlyName:     state.FriendlyName(),
		IsPubliclyListed: state.IsPubliclyListed(),
		Participants:     make([]joinParticipantResponse, 0),
		Areas:            make([]joinAreaResponse, 0),
	}
	for _, member := range state.Participants() {
		resp.Participants = append(resp.Participants, joinParticipantResponse{
			ID:   member.ID,
			Name: member.Name,
		})
	}
	for _, area := range state.ConversationAreas() {
		resp.Areas = append(resp.Areas, joinAreaResponse{
			Label:       area.Label,
			Topic:       area.Topic,
			OccupantIDs: area.OccupantIDs,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeRegistryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, town.ErrTownNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, town.ErrInvalidPassword):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}
