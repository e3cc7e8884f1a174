package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/cwrk-planet/room-relay/internal/domain"
	"github.com/cwrk-planet/room-relay/internal/service"
	"github.com/cwrk-planet/room-relay/internal/store"
	httpmw "github.com/cwrk-planet/room-relay/internal/transport/http/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
)

// RoomReader is the read side of the relay exposed over HTTP.
type RoomReader interface {
	ListRooms(limit int, cursor string) ([]service.RoomSummary, string, error)
	GetRoom(id string) (service.RoomDetail, error)
	Members(id string) ([]domain.Session, error)
}

type Handler struct {
	rooms RoomReader
}

func NewHandler(rooms RoomReader) *Handler {
	return &Handler{rooms: rooms}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// GET /rooms?limit=&cursor=
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}
	cursor := r.URL.Query().Get("cursor")

	rooms, next, err := h.rooms.ListRooms(limit, cursor)
	if err != nil {
		writeError(w, r, "handler.ListRooms", err)
		return
	}

	writeJSON(w, http.StatusOK, RoomsListResponse{
		Items: lo.Map(rooms, func(rm service.RoomSummary, _ int) RoomItem {
			return RoomItem{ID: rm.ID, Online: rm.Online}
		}),
		NextCursor: next,
	})
}

// GET /rooms/{id}
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	room, err := h.rooms.GetRoom(id)
	if err != nil {
		writeError(w, r, "handler.GetRoom", err)
		return
	}

	writeJSON(w, http.StatusOK, RoomResponse{
		ID:       room.ID,
		Online:   room.Online,
		Messages: room.Messages,
	})
}

// GET /rooms/{id}/members
func (h *Handler) GetMembers(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	members, err := h.rooms.Members(id)
	if err != nil {
		writeError(w, r, "handler.GetMembers", err)
		return
	}

	writeJSON(w, http.StatusOK, MembersResponse{
		Items: lo.Map(members, func(s domain.Session, _ int) MemberItem {
			return MemberItem{Username: s.Username}
		}),
	})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrInvalidCursor):
		return http.StatusBadRequest, "invalid_cursor"
	case errors.Is(err, domain.ErrRoomNotFound):
		return http.StatusNotFound, "room_not_found"
	case errors.Is(err, domain.ErrRelayClosed):
		return http.StatusServiceUnavailable, "shutting_down"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		httpmw.L(r.Context()).Error(op, "err", err)
	}
	writeJSON(w, status, ErrorResponse{Error: code})
}
