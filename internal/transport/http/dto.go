package http

import "github.com/cwrk-planet/room-relay/internal/domain"

type ErrorResponse struct {
	Error string `json:"error"`
}

type RoomItem struct {
	ID     string `json:"id"`
	Online int    `json:"online"`
}

type RoomsListResponse struct {
	Items      []RoomItem `json:"items"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

type RoomResponse struct {
	ID       string           `json:"id"`
	Online   int              `json:"online"`
	Messages []domain.Message `json:"messages"`
}

type MemberItem struct {
	Username string `json:"username"`
}

type MembersResponse struct {
	Items []MemberItem `json:"items"`
}
