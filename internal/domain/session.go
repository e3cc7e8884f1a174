package domain

// Session is the registry view of a live connection.
// RoomID is empty until the first successful join.
type Session struct {
	ConnID   string `json:"conn_id"`
	Username string `json:"username"`
	RoomID   string `json:"room_id,omitempty"`
}

func (s Session) Joined() bool { return s.RoomID != "" }
