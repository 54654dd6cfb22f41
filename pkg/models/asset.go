package models

import "time"

const (
	StorageLocal = "local"
	StorageGCS   = "gcs"
)

// Volume is a storage root that folders and assets live in.
type Volume struct {
	ID      int64  `json:"id"`
	Handle  string `json:"handle"`
	Name    string `json:"name"`
	Storage string `json:"storage"`
}

// VolumeFolder is a folder inside a volume. Folders without a volume are
// per-owner temporary upload folders.
type VolumeFolder struct {
	ID       int64  `json:"id"`
	VolumeID *int64 `json:"volume_id,omitempty"`
	ParentID *int64 `json:"parent_id,omitempty"`
	Name     string `json:"name"`
	// Path is relative to the volume root and ends with a slash; empty for the root.
	Path string `json:"path"`
	// Owner is set on temporary folders only.
	Owner string `json:"-"`
}

func (f VolumeFolder) IsTemporary() bool {
	return f.VolumeID == nil
}

// Asset is a stored file.
type Asset struct {
	ID        int64     `json:"id"`
	VolumeID  *int64    `json:"volume_id,omitempty"`
	FolderID  int64     `json:"folder_id"`
	Filename  string    `json:"filename"`
	Kind      string    `json:"kind"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}
