package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meeting-pipeline/internal/domain/entities"
	"github.com/johnquangdev/meeting-pipeline/pkg/config"
)

func TestLocalStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	body := "fake audio bytes"
	ref, err := store.Upload(ctx, strings.NewReader(body), int64(len(body)), "Standup.MP3", "meetings", "audio/mpeg")
	require.NoError(t, err)
	assert.Equal(t, entities.StorageBackendLocal, ref.Backend)
	assert.True(t, strings.HasPrefix(ref.Key, "meetings/"))
	assert.Equal(t, ".mp3", ref.Ext())

	exists, err := store.Exists(ctx, ref)
	require.NoError(t, err)
	assert.True(t, exists)

	dest := filepath.Join(t.TempDir(), "audio.mp3")
	require.NoError(t, store.Download(ctx, ref, dest))
	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, body, string(got))

	deleted, err := store.Delete(ctx, ref)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.Delete(ctx, ref)
	require.NoError(t, err)
	assert.False(t, deleted)

	exists, err = store.Exists(ctx, ref)
	require.NoError(t, err)
	assert.False(t, exists)

	err = store.Download(ctx, ref, dest)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalStore_RejectsEscapingKeys(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../etc/passwd", "/etc/passwd", "meetings/../../x"} {
		ref := entities.StorageRef{Backend: entities.StorageBackendLocal, Key: key}
		_, err := store.Exists(ctx, ref)
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestRouter(t *testing.T) {
	ctx := context.Background()
	active, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	router := NewRouter(active)

	ref, err := router.Upload(ctx, strings.NewReader("x"), 1, "a.wav", "meetings", "audio/wav")
	require.NoError(t, err)
	assert.Equal(t, entities.StorageBackendLocal, router.Backend())

	exists, err := router.Exists(ctx, ref)
	require.NoError(t, err)
	assert.True(t, exists)

	// A ref without a backend resolves to the active store.
	exists, err = router.Exists(ctx, entities.StorageRef{Key: ref.Key})
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = router.Exists(ctx, entities.StorageRef{Backend: entities.StorageBackend("gcs"), Key: "v1/a.mp3"})
	assert.ErrorIs(t, err, ErrBackendNotRegistered)

	err = router.Download(ctx, entities.StorageRef{Backend: entities.StorageBackendS3, Key: "a.mp3"}, filepath.Join(t.TempDir(), "a"))
	assert.ErrorIs(t, err, ErrBackendNotRegistered)
}

func TestParseLegacyLocation(t *testing.T) {
	tests := []struct {
		raw  string
		want entities.StorageRef
	}{
		{
			raw:  "local://meetings/abc.mp3",
			want: entities.StorageRef{Backend: entities.StorageBackendLocal, Key: "meetings/abc.mp3"},
		},
		{
			raw:  "https://my-bucket.s3.us-east-1.amazonaws.com/meetings/abc.wav",
			want: entities.StorageRef{Backend: entities.StorageBackendS3, Key: "meetings/abc.wav"},
		},
		{
			raw:  "https://my-bucket.s3.amazonaws.com/meetings/abc.wav?X-Amz-Signature=deadbeef",
			want: entities.StorageRef{Backend: entities.StorageBackendS3, Key: "meetings/abc.wav"},
		},
		{
			raw:  "https://res.cloudinary.com/demo/video/upload/v1712/meetings/abc.m4a",
			want: entities.StorageRef{Key: "v1712/meetings/abc.m4a"},
		},
		{
			raw:  "https://cdn.example.com/meetings/abc.webm",
			want: entities.StorageRef{Key: "meetings/abc.webm"},
		},
		{
			raw:  "meetings/abc.mp3",
			want: entities.StorageRef{Backend: entities.StorageBackendLocal, Key: "meetings/abc.mp3"},
		},
		{
			raw:  "  local://meetings/padded.mp3\n",
			want: entities.StorageRef{Backend: entities.StorageBackendLocal, Key: "meetings/padded.mp3"},
		},
		{
			raw:  "ftp://files.example.org/a.mp3",
			want: entities.StorageRef{Key: "ftp://files.example.org/a.mp3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLegacyLocation(tt.raw))
		})
	}
}

func TestResolveRef(t *testing.T) {
	m := &entities.Meeting{}
	_, ok := ResolveRef(m)
	assert.False(t, ok)

	legacy := "local://meetings/old.mp3"
	m.RecordingURL = &legacy
	ref, ok := ResolveRef(m)
	require.True(t, ok)
	assert.Equal(t, "meetings/old.mp3", ref.Key)

	m.Recording = entities.StorageRef{Backend: entities.StorageBackendMinIO, Key: "meetings/new.mp3"}
	ref, ok = ResolveRef(m)
	require.True(t, ok)
	assert.Equal(t, entities.StorageBackendMinIO, ref.Backend)
}

func TestResolveRef_LegacyCloudinaryUsesActiveStore(t *testing.T) {
	ctx := context.Background()
	active, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	router := NewRouter(active)

	ref, err := router.Upload(ctx, strings.NewReader("x"), 1, "a.mp3", "meetings", "audio/mpeg")
	require.NoError(t, err)

	legacy := "https://res.cloudinary.com/demo/video/upload/" + ref.Key
	resolved, ok := ResolveRef(&entities.Meeting{RecordingURL: &legacy})
	require.True(t, ok)
	assert.Empty(t, resolved.Backend)

	exists, err := router.Exists(ctx, resolved)
	require.NoError(t, err)
	assert.True(t, exists)

	deleted, err := router.Delete(ctx, resolved)
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("local backend", func(t *testing.T) {
		root := t.TempDir()
		router, err := Open(ctx, &config.StorageConfig{Backend: "local", LocalRoot: root})
		require.NoError(t, err)
		assert.Equal(t, entities.StorageBackendLocal, router.Backend())
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := Open(ctx, &config.StorageConfig{Backend: "ftp", LocalRoot: t.TempDir()})
		require.Error(t, err)
	})
}
