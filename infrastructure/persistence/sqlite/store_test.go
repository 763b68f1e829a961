package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"specmap/application/ports"
	"specmap/domain/chat"
	"specmap/domain/spec"
	"specmap/pkg/errors"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecord(id string) *ports.SessionRecord {
	return &ports.SessionRecord{
		ID:         id,
		Title:      "Test Project",
		TemplateID: "blank",
		Graph: spec.Snapshot{
			ID:    id,
			Title: "Test Project",
			Nodes: []spec.NodeView{
				{ID: "n1", Category: "feature", Attributes: spec.Attributes{Label: "Login"}},
			},
			Edges: []spec.EdgeView{},
		},
		Messages: []chat.Message{
			chat.NewUserMessage("hello"),
		},
		MessageCount: 1,
		Preview:      "hello",
		Version:      1,
		CreatedAt:    time.Now(),
	}
}

func TestStore_CreateAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, sampleRecord("s1")))

	got, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Test Project", got.Title)
	assert.EqualValues(t, 1, got.Version)
	require.Len(t, got.Graph.Nodes, 1)
	assert.Equal(t, "Login", got.Graph.Nodes[0].Attributes.Label)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, chat.RoleUser, got.Messages[0].Role)
}

func TestStore_GetMissing(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestStore_SaveVersionGuard(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, sampleRecord("s1")))

	rec := sampleRecord("s1")
	rec.Title = "Renamed"
	rec.Version = 2
	require.NoError(t, s.Save(ctx, rec))

	got, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)

	// A stale write (same or older version) is rejected.
	stale := sampleRecord("s1")
	stale.Title = "Stale"
	stale.Version = 2
	err = s.Save(ctx, stale)
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))

	got, err = s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title, "stale write left the record untouched")
}

func TestStore_SaveMissing(t *testing.T) {
	s := openTestStore(t)

	rec := sampleRecord("ghost")
	rec.Version = 5
	err := s.Save(context.Background(), rec)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestStore_List(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := sampleRecord("a")
	a.FolderID = "work"
	require.NoError(t, s.Create(ctx, a))
	b := sampleRecord("b")
	require.NoError(t, s.Create(ctx, b))

	all, err := s.List(ctx, ports.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, 1, all[0].NodeCount)

	work, err := s.List(ctx, ports.ListFilter{FolderID: "work"})
	require.NoError(t, err)
	require.Len(t, work, 1)
	assert.Equal(t, "a", work[0].ID)
}

func TestStore_Delete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, sampleRecord("s1")))

	require.NoError(t, s.Delete(ctx, "s1"))
	_, err := s.Get(ctx, "s1")
	assert.True(t, errors.IsNotFound(err))

	assert.NoError(t, s.Delete(ctx, "s1"), "deleting twice is fine")
}

func TestStore_RoundTripPreservesSuggestions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := sampleRecord("s1")
	msg := chat.NewAssistantMessage("reply")
	msg.Suggestions = []byte(`[{"type":"add_node","label":"Auth"}]`)
	rec.Messages = append(rec.Messages, msg)
	rec.MessageCount = 2
	require.NoError(t, s.Create(ctx, rec))

	got, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got.Messages, 2)
	assert.JSONEq(t, `[{"type":"add_node","label":"Auth"}]`, string(got.Messages[1].Suggestions))
}
