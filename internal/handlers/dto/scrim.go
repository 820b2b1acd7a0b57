package dto

type CreateScrimRequest struct {
	Title      string `json:"title" binding:"required,max=100"`
	GameMode   string `json:"game_mode" binding:"required,max=50"`
	Time       string `json:"time" binding:"required"`
	MaxPlayers int    `json:"max_players" binding:"required"`
}

type MessageScrimRequest struct {
	Text string `json:"text" binding:"required,max=2000"`
}
