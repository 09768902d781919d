package storage

import (
	"strings"

	"github.com/johnquangdev/meeting-pipeline/internal/domain/entities"
)

const localScheme = "local://"

// ParseLegacyLocation converts a recording location string from older rows
// into a StorageRef. Recognised shapes, checked in order:
//
//	local://meetings/a.mp3                               -> local
//	https://bucket.s3.amazonaws.com/meetings/a.mp3       -> s3
//	https://res.cloudinary.com/x/video/upload/v1/a.mp3   -> active backend, key after "/upload/"
//	https://cdn.example.com/meetings/a.mp3               -> active backend, key after last ".com/"
//	meetings/a.mp3                                       -> local
//
// Anything else is returned as a key for the active backend unchanged.
func ParseLegacyLocation(raw string) entities.StorageRef {
	raw = strings.TrimSpace(raw)

	switch {
	case strings.HasPrefix(raw, localScheme):
		return entities.StorageRef{
			Backend: entities.StorageBackendLocal,
			Key:     strings.TrimPrefix(raw, localScheme),
		}

	case strings.Contains(raw, ".amazonaws.com/"):
		_, key, _ := strings.Cut(raw, ".amazonaws.com/")
		return entities.StorageRef{Backend: entities.StorageBackendS3, Key: stripQuery(key)}

	case strings.Contains(raw, "cloudinary.com") && strings.Contains(raw, "/upload/"):
		_, key, _ := strings.Cut(raw, "/upload/")
		return entities.StorageRef{Key: stripQuery(key)}

	case strings.Contains(raw, ".com/"):
		key := raw[strings.LastIndex(raw, ".com/")+len(".com/"):]
		return entities.StorageRef{Key: stripQuery(key)}

	case !strings.Contains(raw, "://"):
		return entities.StorageRef{Backend: entities.StorageBackendLocal, Key: raw}
	}

	return entities.StorageRef{Key: raw}
}

// ResolveRef returns the structured reference of a meeting's recording,
// falling back to the legacy location string
func ResolveRef(m *entities.Meeting) (entities.StorageRef, bool) {
	if !m.Recording.IsZero() {
		return m.Recording, true
	}
	if m.RecordingURL == nil || strings.TrimSpace(*m.RecordingURL) == "" {
		return entities.StorageRef{}, false
	}
	return ParseLegacyLocation(*m.RecordingURL), true
}

func stripQuery(key string) string {
	if i := strings.IndexByte(key, '?'); i >= 0 {
		return key[:i]
	}
	return key
}
