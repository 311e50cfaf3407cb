package pending

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), ".clawdbot", "pending-emails.json"), nil)
}

func testMessage(id string) Message {
	return Message{
		ID:        id,
		InboxID:   "inbox-1",
		To:        id + "@example.com",
		Subject:   "Subject " + id,
		Text:      "body " + id,
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestStore_ListMissingFile(t *testing.T) {
	s := newTestStore(t)

	msgs := s.List()
	assert.NotNil(t, msgs)
	assert.Empty(t, msgs)
}

func TestStore_ListCorruptFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "garbage", content: "{{{"},
		{name: "object instead of array", content: `{"id":"x"}`},
		{name: "empty", content: ""},
		{name: "null", content: "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0700))
			require.NoError(t, os.WriteFile(s.Path(), []byte(tt.content), 0600))

			msgs := s.List()
			assert.NotNil(t, msgs)
			assert.Empty(t, msgs)
		})
	}
}

func TestStore_MutationsKeepUnparsableFile(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0700))
	content := `[{"id":"keep","inboxId":"i","to":"a@b.c","subject":"s","text":"t","createdAt":"yesterday"}]`
	require.NoError(t, os.WriteFile(s.Path(), []byte(content), 0600))

	assert.Empty(t, s.List())

	err := s.Enqueue(testMessage("new"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode pending store")

	_, err = s.Remove("keep")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestStore_EnqueueOverEmptyFile(t *testing.T) {
	for _, content := range []string{"", "null"} {
		s := newTestStore(t)
		require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0700))
		require.NoError(t, os.WriteFile(s.Path(), []byte(content), 0600))

		require.NoError(t, s.Enqueue(testMessage("a")), "content %q", content)
		assert.Len(t, s.List(), 1)
	}
}

func TestStore_EnqueuePreservesOrder(t *testing.T) {
	s := newTestStore(t)

	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, s.Enqueue(testMessage(id)))
	}

	msgs := s.List()
	require.Len(t, msgs, 3)
	assert.Equal(t, "c", msgs[0].ID)
	assert.Equal(t, "a", msgs[1].ID)
	assert.Equal(t, "b", msgs[2].ID)
	assert.Equal(t, testMessage("a"), msgs[1])
}

func TestStore_EnqueueRejectsDuplicateAndEmptyID(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Enqueue(testMessage("x")))

	err := s.Enqueue(testMessage("x"))
	require.ErrorIs(t, err, ErrDuplicateID)

	err = s.Enqueue(Message{To: "a@b.c"})
	require.ErrorIs(t, err, ErrEmptyID)

	assert.Len(t, s.List(), 1)
}

func TestStore_Remove(t *testing.T) {
	s := newTestStore(t)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Enqueue(testMessage(id)))
	}

	removed, err := s.Remove("b")
	require.NoError(t, err)
	assert.Equal(t, testMessage("b"), removed)

	msgs := s.List()
	require.Len(t, msgs, 2)
	assert.Equal(t, "a", msgs[0].ID)
	assert.Equal(t, "c", msgs[1].ID)

	_, err = s.Remove("b")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_FindByID(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Enqueue(testMessage("a")))

	msg, ok := s.FindByID("a")
	require.True(t, ok)
	assert.Equal(t, "a@example.com", msg.To)

	_, ok = s.FindByID("missing")
	assert.False(t, ok)
}

func TestStore_FileFormat(t *testing.T) {
	s := newTestStore(t)
	msg := testMessage("abc")
	msg.HTML = "<p>hi</p>"
	require.NoError(t, s.Enqueue(msg))
	require.NoError(t, s.Enqueue(testMessage("def")))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 2)
	assert.Equal(t, "inbox-1", raw[0]["inboxId"])
	assert.Equal(t, "2026-01-02T03:04:05Z", raw[0]["createdAt"])
	assert.Equal(t, "<p>hi</p>", raw[0]["html"])
	_, hasHTML := raw[1]["html"]
	assert.False(t, hasHTML, "empty html is omitted")

	assert.Contains(t, string(data), "\n  {", "pretty-printed")

	info, err := os.Stat(filepath.Dir(s.Path()))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
}

func TestStore_ReadsExternallyWrittenFile(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0700))

	content := `[
  {"id":"1","inboxId":"in","to":"a@b.c","subject":"s","text":"t","createdAt":"2025-06-01T12:00:00.000Z"}
]`
	require.NoError(t, os.WriteFile(s.Path(), []byte(content), 0600))

	msgs := s.List()
	require.Len(t, msgs, 1)
	assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), msgs[0].CreatedAt.UTC())
}

func TestStore_WriteFailureSurfaces(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

	s := NewStore(filepath.Join(blocker, "pending.json"), nil)
	err := s.Enqueue(testMessage("a"))
	require.Error(t, err)
}

func TestStore_ManySequentialMutations(t *testing.T) {
	s := newTestStore(t)
	for i := range 20 {
		require.NoError(t, s.Enqueue(testMessage(fmt.Sprintf("m%02d", i))))
	}
	for i := 0; i < 20; i += 2 {
		_, err := s.Remove(fmt.Sprintf("m%02d", i))
		require.NoError(t, err)
	}

	msgs := s.List()
	require.Len(t, msgs, 10)
	for i, msg := range msgs {
		assert.Equal(t, fmt.Sprintf("m%02d", i*2+1), msg.ID)
	}
}
