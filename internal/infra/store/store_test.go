package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract exercises the behavior every backend must share.
func runStoreContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, err := s.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "users/u1/liked", []byte(`["track1","track2"]`)))
		got, err := s.Get(ctx, "users/u1/liked")
		require.NoError(t, err)
		assert.JSONEq(t, `["track1","track2"]`, string(got))
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "preferences", []byte(`{"volume":80}`)))
		require.NoError(t, s.Set(ctx, "preferences", []byte(`{"volume":30}`)))
		got, err := s.Get(ctx, "preferences")
		require.NoError(t, err)
		assert.JSONEq(t, `{"volume":30}`, string(got))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "session/user", []byte(`{"id":"u1"}`)))
		require.NoError(t, s.Delete(ctx, "session/user"))
		_, err := s.Get(ctx, "session/user")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, s.Delete(ctx, "session/user"), "deleting twice is fine")
	})

	t.Run("json helpers", func(t *testing.T) {
		type record struct {
			Name  string `json:"name"`
			Count int    `json:"count"`
		}
		require.NoError(t, SetJSON(ctx, s, UserKey("u1", "stats"), record{Name: "a", Count: 3}))
		var got record
		require.NoError(t, GetJSON(ctx, s, UserKey("u1", "stats"), &got))
		assert.Equal(t, record{Name: "a", Count: 3}, got)
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "vibeflow.json")
	s, err := NewFileStore(path)
	require.NoError(t, err)
	runStoreContract(t, s)
}

func TestFileStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vibeflow.json")

	s, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "preferences", []byte(`{"theme":"dark"}`)))
	require.NoError(t, s.Set(ctx, "raw", []byte("not json")))

	reopened, err := NewFileStore(path)
	require.NoError(t, err)

	got, err := reopened.Get(ctx, "preferences")
	require.NoError(t, err)
	assert.JSONEq(t, `{"theme":"dark"}`, string(got))

	raw, err := reopened.Get(ctx, "raw")
	require.NoError(t, err)
	assert.Equal(t, "not json", string(raw))
}

func TestFileStore_ValuesComeBackAsWritten(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vibeflow.json")

	values := map[string]string{
		"blob-lookalike": `{"__blob":"aGVsbG8="}`,
		"entry-lookalike": `{"json":{"a":1},"bytes":"aGk="}`,
		"bytes-lookalike": `{"bytes":"aGk="}`,
		"null":            `null`,
	}
	s, err := NewFileStore(path)
	require.NoError(t, err)
	for k, v := range values {
		require.NoError(t, s.Set(ctx, k, []byte(v)))
	}
	require.NoError(t, s.Set(ctx, "empty", []byte{}))

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	for k, v := range values {
		got, err := reopened.Get(ctx, k)
		require.NoError(t, err, k)
		assert.JSONEq(t, v, string(got), k)
	}
	got, err := reopened.Get(ctx, "empty")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "vibeflow.sqlite3"))
	require.NoError(t, err)
	defer s.Close()
	runStoreContract(t, s)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := NewRedisStore(context.Background(), RedisConfig{Addr: mr.Addr(), Prefix: "vibeflow:"})
	require.NoError(t, err)
	defer s.Close()
	runStoreContract(t, s)

	assert.True(t, mr.Exists("vibeflow:preferences"), "keys are namespaced by prefix")
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "memory", cfg: Config{Backend: BackendMemory}},
		{name: "file", cfg: Config{Backend: BackendFile, Path: filepath.Join(dir, "kv.json")}},
		{name: "sqlite", cfg: Config{Backend: BackendSQLite, Path: filepath.Join(dir, "kv.sqlite3")}},
		{name: "unknown", cfg: Config{Backend: "etcd"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(ctx, tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, s.Close())
		})
	}
}
