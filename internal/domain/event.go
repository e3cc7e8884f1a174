package domain

// Имена событий на границе транспорта.
const (
	EventJoinRoom    = "joinRoom"
	EventChatMessage = "chatMessage"

	EventRoomInfo   = "roomInfo"
	EventUserJoined = "userJoined"
	EventUserLeft   = "userLeft"
	EventNewMessage = "newMessage"
)

// Event is one outbound frame addressed to a single connection.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type RoomInfoPayload struct {
	Online   int       `json:"online"`
	Messages []Message `json:"messages"`
}

type PresencePayload struct {
	Username string `json:"username"`
}

type JoinRoomPayload struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

type ChatMessagePayload struct {
	Text     string `json:"text"`
	Room     string `json:"room"`
	Username string `json:"username"`
}

func RoomInfo(online int, msgs []Message) Event {
	if msgs == nil {
		msgs = []Message{}
	}
	return Event{Type: EventRoomInfo, Payload: RoomInfoPayload{Online: online, Messages: msgs}}
}

func UserJoined(username string) Event {
	return Event{Type: EventUserJoined, Payload: PresencePayload{Username: username}}
}

func UserLeft(username string) Event {
	return Event{Type: EventUserLeft, Payload: PresencePayload{Username: username}}
}

func NewMessage(m Message) Event {
	return Event{Type: EventNewMessage, Payload: m}
}
