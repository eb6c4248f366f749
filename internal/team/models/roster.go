package models

// Roster is the ordered team as stored.
// Consistent is false when stored positions are not exactly 0..N-1; the
// admin must run a repair before reordering again.
type Roster struct {
	Members    []Member `json:"members"`
	Consistent bool     `json:"consistent"`
}
