package models

// Project, Series and Shot form the optional production hierarchy.
// Assets may bind to any level; all bindings are nullable.

type Project struct {
	ID        string  `json:"id"`
	Name      *string `json:"name,omitempty"`
	CreatedAt string  `json:"created_at"`
}

type Series struct {
	ID        string  `json:"id"`
	ProjectID *string `json:"project_id,omitempty"`
	Name      *string `json:"name,omitempty"`
	CreatedAt string  `json:"created_at"`
}

type Shot struct {
	ID        string  `json:"id"`
	ProjectID *string `json:"project_id,omitempty"`
	SeriesID  *string `json:"series_id,omitempty"`
	Name      *string `json:"name,omitempty"`
	CreatedAt string  `json:"created_at"`
}
