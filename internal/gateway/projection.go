package gateway

import (
	"encoding/json"
)

const (
	defaultQuest = "No quest available."
	defaultTip   = "Save a little every day!"
)

// Projection turns a raw engine payload into what the browser receives
type Projection interface {
	Project(raw json.RawMessage) (any, error)
}

// Identity passes payloads through untouched
type Identity struct{}

func (Identity) Project(raw json.RawMessage) (any, error) {
	return raw, nil
}

// GameState projects engine payloads onto GameStateV1
type GameState struct{}

func (GameState) Project(raw json.RawMessage) (any, error) {
	return FlattenGameState(raw), nil
}

// WeeklySummary is income and spending over the last seven days
type WeeklySummary struct {
	Income   json.Number `json:"income"`
	Spending json.Number `json:"spending"`
}

// GameStateV1 is the flattened game state contract served to the dashboard.
// Field names and types do not change within v1; the engine's own envelope
// may.
type GameStateV1 struct {
	XP            json.Number       `json:"xp"`
	Level         json.Number       `json:"level"`
	Badges        []json.RawMessage `json:"badges"`
	Quest         string            `json:"quest"`
	Tip           string            `json:"tip"`
	Transactions  []json.RawMessage `json:"transactions"`
	Buckets       []json.RawMessage `json:"buckets"`
	WeeklySummary WeeklySummary     `json:"weeklySummary"`
}

// FlattenGameState pulls the v1 fields out of either the engine envelope
// ({"game":{...},"summary":{...}}) or an already flat payload. It never
// fails: fields that are absent or of the wrong type take their defaults.
func FlattenGameState(raw json.RawMessage) GameStateV1 {
	top := object(raw)

	game, hasGame := top["game"]
	summary, hasSummary := top["summary"]

	if !hasGame && !hasSummary {
		weekly := object(top["weeklySummary"])
		return GameStateV1{
			XP:            number(top["xp"]),
			Level:         number(top["level"]),
			Badges:        list(top["badges"]),
			Quest:         text(top["quest"], defaultQuest),
			Tip:           text(top["tip"], defaultTip),
			Transactions:  list(top["transactions"]),
			Buckets:       list(top["buckets"]),
			WeeklySummary: WeeklySummary{Income: number(weekly["income"]), Spending: number(weekly["spending"])},
		}
	}

	g := object(game)
	s := object(summary)
	week := object(object(s["stats"])["last_7d"])

	return GameStateV1{
		XP:            number(g["xp"]),
		Level:         number(g["level"]),
		Badges:        list(g["badges"]),
		Quest:         text(g["quest"], defaultQuest),
		Tip:           text(g["tip"], defaultTip),
		Transactions:  list(s["recent"]),
		Buckets:       list(s["buckets"]),
		WeeklySummary: WeeklySummary{Income: number(week["income"]), Spending: number(week["spending"])},
	}
}

func object(raw json.RawMessage) map[string]json.RawMessage {
	var m map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &m) != nil || m == nil {
		return map[string]json.RawMessage{}
	}
	return m
}

func list(raw json.RawMessage) []json.RawMessage {
	var l []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &l) != nil || l == nil {
		return []json.RawMessage{}
	}
	return l
}

func number(raw json.RawMessage) json.Number {
	var n json.Number
	if len(raw) == 0 || json.Unmarshal(raw, &n) != nil || n == "" {
		return "0"
	}
	return n
}

func text(raw json.RawMessage, fallback string) string {
	if len(raw) == 0 || string(raw) == "null" {
		return fallback
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return fallback
	}
	return s
}
