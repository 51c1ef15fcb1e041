package fans

import (
	"bytes"
	"encoding/json"
)

// FollowRecord is one fan's favourites from the follow dataset.
type FollowRecord struct {
	UserID            UserID `json:"user_id"`
	FavoriteTeamID    int    `json:"favorite_team_id"`
	FollowedTeamIDs   []int  `json:"followed_team_ids"`
	FollowedPlayerIDs []int  `json:"followed_player_ids"`
}

// UserID accepts either a JSON string or number.
type UserID string

func (u *UserID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*u = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*u = UserID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*u = UserID(n.String())
	return nil
}
