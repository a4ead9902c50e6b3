package journal_test

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillreader/quill/pkg/quill/command"
	"github.com/quillreader/quill/pkg/quill/journal"
)

// storeFactory creates a store instance for testing.
type storeFactory func(t *testing.T) journal.Store

// storeContractTest runs contract tests against any Store implementation.
func storeContractTest(t *testing.T, name string, factory storeFactory) {
	entry := func(effector, reason string, ts time.Time) journal.Entry {
		e := journal.EntryFor(command.Speak{Meta: command.NewMeta(), Text: "hello"},
			assert.AnError)
		e.Effector = effector
		e.Reason = reason
		e.Timestamp = ts
		return e
	}

	t.Run(name+"/Record_and_Recent", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		e := entry("speech", "server gone", time.Now().UTC())
		require.NoError(t, store.Record(e))

		entries, err := store.Recent(10)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, e.ID, entries[0].ID)
		assert.Equal(t, e.CommandID, entries[0].CommandID)
		assert.Equal(t, "server gone", entries[0].Reason)
		assert.Equal(t, e.Payload, entries[0].Payload)
	})

	t.Run(name+"/Recent_NewestFirst", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		base := time.Now().UTC()
		require.NoError(t, store.Record(entry("speech", "oldest", base.Add(-2*time.Hour))))
		require.NoError(t, store.Record(entry("speech", "middle", base.Add(-time.Hour))))
		require.NoError(t, store.Record(entry("speech", "newest", base)))

		entries, err := store.Recent(2)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "newest", entries[0].Reason)
		assert.Equal(t, "middle", entries[1].Reason)
	})

	t.Run(name+"/ListByEffector", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		now := time.Now().UTC()
		require.NoError(t, store.Record(entry("speech", "a", now)))
		require.NoError(t, store.Record(entry("braille", "b", now)))
		require.NoError(t, store.Record(entry("speech", "c", now.Add(time.Second))))

		entries, err := store.ListByEffector("speech")
		require.NoError(t, err)
		require.Len(t, entries, 2)
		for _, e := range entries {
			assert.Equal(t, "speech", e.Effector)
		}

		entries, err = store.ListByEffector("notification")
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run(name+"/Prune", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		cutoff := time.Now().UTC()
		require.NoError(t, store.Record(entry("speech", "old", cutoff.Add(-time.Hour))))
		require.NoError(t, store.Record(entry("speech", "new", cutoff.Add(time.Hour))))

		removed, err := store.Prune(cutoff)
		require.NoError(t, err)
		assert.Equal(t, 1, removed)

		entries, err := store.Recent(10)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "new", entries[0].Reason)
	})

	t.Run(name+"/Closed", func(t *testing.T) {
		store := factory(t)
		require.NoError(t, store.Close())

		err := store.Record(entry("speech", "late", time.Now().UTC()))
		assert.ErrorIs(t, err, journal.ErrStoreClosed)

		_, err = store.Recent(1)
		assert.ErrorIs(t, err, journal.ErrStoreClosed)
	})
}

func TestMemoryStoreContract(t *testing.T) {
	storeContractTest(t, "memory", func(t *testing.T) journal.Store {
		return journal.NewMemoryStore()
	})
}

func TestSQLiteStoreContract(t *testing.T) {
	storeContractTest(t, "sqlite", func(t *testing.T) journal.Store {
		store, err := journal.NewSQLiteStore(filepath.Join(t.TempDir(), "journal.db"))
		require.NoError(t, err)
		return store
	})
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	store, err := journal.NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Record(journal.EntryFor(
		command.Speak{Meta: command.NewMeta(), Text: "persisted"}, assert.AnError)))
	require.NoError(t, store.Close())

	reopened, err := journal.NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	entries, err := reopened.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(entries[0].Payload, &payload))
	assert.Equal(t, "persisted", payload["Text"])
}

func TestEntryFor(t *testing.T) {
	cmd := command.Notify{Meta: command.NewMeta(), Summary: "battery low"}
	e := journal.EntryFor(cmd, assert.AnError)

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, cmd.CommandID(), e.CommandID)
	assert.Equal(t, string(command.KindNotify), e.Kind)
	assert.Equal(t, command.EffectorNotification, e.Effector)
	assert.Equal(t, assert.AnError.Error(), e.Reason)
	assert.False(t, e.Timestamp.IsZero())
}
