package domain

import (
	"sort"
	"strings"

	apperrors "github.com/flyingdarts/x01/internal/platform/errors"
)

// Player represents one registered seat in a match.
//
// JoinOrder is the tiebreak key for throw order and display order and is
// unique within a match.
type Player struct {
	ID          string `json:"playerId"`
	MatchID     string `json:"-"`
	DisplayName string `json:"displayName"`
	CountryCode string `json:"countryCode"`
	JoinOrder   int    `json:"joinOrder"`
}

// NormalizePlayer trims and validates a player seat.
func NormalizePlayer(player Player) (Player, error) {
	player.ID = strings.TrimSpace(player.ID)
	if player.ID == "" {
		return Player{}, apperrors.New(apperrors.CodePlayerEmptyID, "player id is required")
	}
	player.DisplayName = strings.TrimSpace(player.DisplayName)
	player.CountryCode = strings.ToLower(strings.TrimSpace(player.CountryCode))
	if player.JoinOrder < 0 {
		return Player{}, apperrors.New(apperrors.CodePlayerDuplicateSeat, "join order must not be negative")
	}
	return player, nil
}

// SortPlayers orders players by join order ascending, mutating the slice.
func SortPlayers(players []Player) {
	sort.SliceStable(players, func(i, j int) bool {
		return players[i].JoinOrder < players[j].JoinOrder
	})
}
