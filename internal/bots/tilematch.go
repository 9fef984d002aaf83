package bots

import "encoding/json"

type tileMatchTile struct {
	ID      int    `json:"id"`
	Color   string `json:"color"`
	Matched bool   `json:"matched"`
}

type tileMatchView struct {
	Tiles    []tileMatchTile `json:"tiles"`
	GameOver bool            `json:"gameOver"`
}

type tileMatchMove struct {
	TileA int `json:"tileA"`
	TileB int `json:"tileB"`
}

// decideTileMatch scans for any unmatched same-colour pair and submits it
// (spec.md §4.5). ok is false once no pair remains, so the registry simply
// skips the bot's turn rather than submitting a doomed move.
func decideTileMatch(raw json.RawMessage) ([]json.RawMessage, bool, error) {
	var v tileMatchView
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false, err
	}
	if v.GameOver {
		return nil, false, nil
	}
	byColor := make(map[string][]int)
	for _, t := range v.Tiles {
		if !t.Matched {
			byColor[t.Color] = append(byColor[t.Color], t.ID)
		}
	}
	for _, ids := range byColor {
		if len(ids) >= 2 {
			return []json.RawMessage{marshalOne(tileMatchMove{TileA: ids[0], TileB: ids[1]})}, true, nil
		}
	}
	return nil, false, nil
}
