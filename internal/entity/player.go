package entity

// Player is a seat in a game: the session that owns it and the name results are recorded under.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Mark string `json:"mark,omitempty"`
}
