package models

// Asset kinds.
const (
	AssetKindImage = "image"
	AssetKindVideo = "video"
	AssetKindAudio = "audio"
	AssetKindText  = "text"
)

// Asset is a media artifact. Deletion is soft: deleted_at is set and
// the row stays until a trash purge hard-deletes it; links to the
// asset are retained as audit trail either way.
type Asset struct {
	ID          string  `json:"id"`
	Kind        string  `json:"kind"`
	URI         *string `json:"uri,omitempty"`
	MimeType    *string `json:"mime_type,omitempty"`
	SHA256      *string `json:"sha256,omitempty"`
	Width       *int    `json:"width,omitempty"`
	Height      *int    `json:"height,omitempty"`
	DurationMS  *int    `json:"duration_ms,omitempty"`
	ProjectID   *string `json:"project_id,omitempty"`
	SeriesID    *string `json:"series_id,omitempty"`
	ShotID      *string `json:"shot_id,omitempty"`
	StoragePath *string `json:"storage_path,omitempty"`
	MetaJSON    *string `json:"meta,omitempty"`
	CreatedAt   string  `json:"created_at"`
	DeletedAt   *string `json:"deleted_at,omitempty"`
}

// Deleted reports whether the asset is in the trash.
func (a *Asset) Deleted() bool {
	return a.DeletedAt != nil && *a.DeletedAt != ""
}
