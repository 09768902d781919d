package entities

import (
	"fmt"
	"path"
	"strings"
)

// StorageBackend names the object store holding a blob
type StorageBackend string

const (
	StorageBackendLocal StorageBackend = "local"
	StorageBackendMinIO StorageBackend = "minio"
	StorageBackendS3    StorageBackend = "s3"
)

// StorageRef locates a blob inside a specific backend.
// The key is backend-relative and never contains a scheme or host.
type StorageRef struct {
	Backend StorageBackend `json:"backend,omitempty" gorm:"column:backend;type:varchar(20)"`
	Key     string         `json:"key,omitempty" gorm:"column:key;type:text"`
}

// IsZero reports whether the ref points nowhere
func (r StorageRef) IsZero() bool {
	return r.Backend == "" && r.Key == ""
}

// Ext returns the file extension of the key including the dot, or "" if none
func (r StorageRef) Ext() string {
	return strings.ToLower(path.Ext(r.Key))
}

func (r StorageRef) String() string {
	return fmt.Sprintf("%s://%s", r.Backend, r.Key)
}
