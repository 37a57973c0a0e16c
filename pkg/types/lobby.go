package types

// Counts are the aggregate numbers pushed to every lobby subscriber.
type Counts struct {
	NumPlayers     int `json:"numPlayers"`
	NumGames       int `json:"numGames"`
	NumActiveGames int `json:"numActiveGames"`
}

// RoomInfo describes one joinable public game in the lobby listing.
type RoomInfo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	UsedSeats   int    `json:"usedSeats"`
	TotalSeats  int    `json:"totalSeats"`
	PacksInfo   string `json:"packsInfo"`
	TimeCreated int64  `json:"timeCreated"`
}
