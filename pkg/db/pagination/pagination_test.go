package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCursorRoundTrip(t *testing.T) {
	token, err := EncodeCursor(Cursor{ID: "1948272635412480001", CreatedAt: "2026-03-12T08:30:00Z"})
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	cursor, err := DecodeCursor(token)
	assert.NoError(t, err)
	assert.Equal(t, "1948272635412480001", cursor.ID)
	assert.Equal(t, "2026-03-12T08:30:00Z", cursor.CreatedAt)
}

func TestDecodeCursorRejectsBadToken(t *testing.T) {
	_, err := DecodeCursor("not base64!!")
	assert.Error(t, err)

	// Valid base64 but not a cursor payload.
	_, err = DecodeCursor("aGVsbG8gd29ybGQ=")
	assert.Error(t, err)
}

type row struct {
	ID string
}

func TestBuildCursorPageInfoTrimsOverfetch(t *testing.T) {
	rows := []*row{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	page, info := BuildCursorPageInfo(rows, 2, func(r *row) string { return r.ID })
	assert.Len(t, page, 2)
	assert.True(t, info.HasMore)
	assert.Equal(t, "b", info.NextPageToken)
}

func TestBuildCursorPageInfoLastPage(t *testing.T) {
	rows := []*row{{ID: "a"}, {ID: "b"}}

	page, info := BuildCursorPageInfo(rows, 2, func(r *row) string { return r.ID })
	assert.Len(t, page, 2)
	assert.False(t, info.HasMore)
	assert.Equal(t, "b", info.NextPageToken)
}

func TestBuildCursorPageInfoEmpty(t *testing.T) {
	page, info := BuildCursorPageInfo(nil, 2, func(r *row) string { return r.ID })
	assert.Empty(t, page)
	assert.False(t, info.HasMore)
	assert.Empty(t, info.NextPageToken)
}
