package store

import (
	"testing"

	"github.com/cwrk-planet/room-relay/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableWith(ids ...string) *RoomTable {
	t := NewRoomTable(0)
	for _, id := range ids {
		t.GetOrCreate(id)
	}
	return t
}

func roomIDs(rooms []*Room) []string {
	out := make([]string, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.ID)
	}
	return out
}

func TestPage_ExactLimitHasNoCursor(t *testing.T) {
	tbl := tableWith("b", "a", "c")

	rooms, next, err := tbl.Page("", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, roomIDs(rooms))
	assert.Empty(t, next)
}

func TestPage_Walk(t *testing.T) {
	tbl := tableWith("d", "b", "a", "c")

	rooms, next, err := tbl.Page("", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, roomIDs(rooms))
	require.NotEmpty(t, next)

	rooms, next, err = tbl.Page(next, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d"}, roomIDs(rooms))
	assert.Empty(t, next)
}

func TestPage_InvalidCursor(t *testing.T) {
	_, _, err := tableWith("a").Page("!!!", 2)
	require.ErrorIs(t, err, ErrInvalidCursor)
}

func TestRemoveMember(t *testing.T) {
	tbl := NewRoomTable(0)
	r, created := tbl.GetOrCreate("general")
	require.True(t, created)
	assert.True(t, r.Add("c1"))
	assert.False(t, r.Add("c1"))

	assert.True(t, tbl.RemoveMember("general", "c1"))
	assert.False(t, tbl.RemoveMember("general", "c1"))
	assert.False(t, tbl.RemoveMember("missing", "c1"))
	assert.Zero(t, r.Online())
}

func TestRoom_AppendKeepsLastRetained(t *testing.T) {
	r := newRoom("general", 3)
	for i := int64(1); i <= 5; i++ {
		r.Append(domain.Message{ID: i, Text: "m"})
	}
	tail := r.Tail(10)
	require.Len(t, tail, 3)
	assert.Equal(t, int64(3), tail[0].ID)
	assert.Equal(t, int64(5), tail[2].ID)
}
