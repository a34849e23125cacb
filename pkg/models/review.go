package models

// Review is an append-only verdict on a run. Changing one's mind means
// a new review row.
type Review struct {
	ID        string  `json:"id"`
	RunID     string  `json:"run_id"`
	Rating    *int    `json:"rating,omitempty"`
	Notes     *string `json:"notes,omitempty"`
	CreatedAt string  `json:"created_at"`
}
