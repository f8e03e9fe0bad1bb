package playercatalog

// TeamRef is one team a player has appeared for, with the number of
// recorded matches for that team.
type TeamRef struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Matches int    `json:"matches"`
}

// Entry is one deduplicated player in the global catalog.
type Entry struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Number          string    `json:"number,omitempty"`
	Teams           []TeamRef `json:"teams"`
	PrimaryTeamID   string    `json:"primaryTeamId"`
	PrimaryTeamName string    `json:"primaryTeamName"`
	Matches         int       `json:"matches"`
}

// PlaysFor reports whether the player has ever appeared for the team.
func (e Entry) PlaysFor(teamID string) bool {
	for _, team := range e.Teams {
		if team.ID == teamID {
			return true
		}
	}
	return false
}
