package bots

import (
	"encoding/json"
	"math"
)

const arenaSafetyConeRadius = 150.0

type arenaCell struct {
	Pos    arcadeVec `json:"pos"`
	Radius float64   `json:"radius"`
	Alive  bool      `json:"alive"`
}

type arenaPellet struct {
	X, Y, R float64
}

type arenaView struct {
	Width    float64              `json:"width"`
	Height   float64              `json:"height"`
	Cells    map[string]arenaCell `json:"cells"`
	Pellets  []arenaPellet        `json:"pellets"`
	GameOver bool                 `json:"gameOver"`
}

type arenaAim struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// decideArena picks the closest pellet that no larger cell (radius at least
// 1.1x the bot's) is nearer to, preferring a smaller vulnerable cell within
// a safety cone (spec.md §4.5).
func decideArena(raw json.RawMessage, seatID string) ([]json.RawMessage, bool, error) {
	var v arenaView
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false, err
	}
	if v.GameOver {
		return nil, false, nil
	}
	me, ok := v.Cells[seatID]
	if !ok || !me.Alive {
		return nil, false, nil
	}

	if prey, found := nearestVulnerablePrey(v, seatID, me); found {
		return []json.RawMessage{marshalOne(arenaAim{X: prey.X, Y: prey.Y})}, true, nil
	}

	best, bestDist, found := arenaPellet{}, math.MaxFloat64, false
	for _, p := range v.Pellets {
		if threatensEnRoute(v, seatID, me, p) {
			continue
		}
		d := arcadeDist(me.Pos, arcadeVec{X: p.X, Y: p.Y})
		if d < bestDist {
			best, bestDist, found = p, d, true
		}
	}
	if !found {
		return []json.RawMessage{marshalOne(arenaAim{X: v.Width / 2, Y: v.Height / 2})}, true, nil
	}
	return []json.RawMessage{marshalOne(arenaAim{X: best.X, Y: best.Y})}, true, nil
}

// nearestVulnerablePrey finds a smaller, alive cell within the safety cone
// that my cell could safely absorb.
func nearestVulnerablePrey(v arenaView, myID string, me arenaCell) (arcadeVec, bool) {
	best, bestDist, found := arcadeVec{}, math.MaxFloat64, false
	for id, c := range v.Cells {
		if id == myID || !c.Alive {
			continue
		}
		if me.Radius < c.Radius*1.1 {
			continue
		}
		d := arcadeDist(me.Pos, c.Pos)
		if d > arenaSafetyConeRadius {
			continue
		}
		if d < bestDist {
			best, bestDist, found = c.Pos, d, true
		}
	}
	return best, found
}

// threatensEnRoute reports whether a larger, alive cell sits closer to the
// pellet than we do, making the pellet an ambush risk.
func threatensEnRoute(v arenaView, myID string, me arenaCell, p arenaPellet) bool {
	myDist := arcadeDist(me.Pos, arcadeVec{X: p.X, Y: p.Y})
	for id, c := range v.Cells {
		if id == myID || !c.Alive || c.Radius < me.Radius*1.1 {
			continue
		}
		if arcadeDist(c.Pos, arcadeVec{X: p.X, Y: p.Y}) < myDist {
			return true
		}
	}
	return false
}
