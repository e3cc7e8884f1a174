package domain

import "errors"

var (
	ErrInvalidRoom      = errors.New("invalid room id")
	ErrUnauthorizedSend = errors.New("sender is not joined to the room")
	ErrStaleRoom        = errors.New("room is gone")
	ErrEmptyMessage     = errors.New("empty message")
	ErrUnknownConn      = errors.New("unknown connection")
	ErrRelayClosed      = errors.New("relay is closed")
	ErrSendBufferFull   = errors.New("send buffer full")
)

var ErrRoomNotFound = errors.New("room not found")
