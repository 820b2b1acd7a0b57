package scrim

import (
	"math/rand"

	"github.com/thereayou/scrimhub/internal/models"
)

// SplitTeams перемешивает игроков и делит их пополам.
// При нечетном количестве команды отличаются на одного игрока;
// какая из половин станет первой командой, решает монетка.
func SplitTeams(players []models.ScrimPlayer, rng *rand.Rand) (team1, team2 []models.ScrimPlayer) {
	shuffled := make([]models.ScrimPlayer, len(players))
	copy(shuffled, players)

	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	mid := len(shuffled) / 2
	team1, team2 = shuffled[:mid], shuffled[mid:]

	if rng.Intn(2) == 0 {
		team1, team2 = team2, team1
	}

	return team1, team2
}
