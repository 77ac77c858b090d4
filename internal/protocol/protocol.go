// Package protocol defines the messages the tracker pushes to overlay and
// display clients. The feed is one-way: clients connect and receive STATE
// messages, starting with the current snapshot.
package protocol

import (
	"encoding/json"
	"fmt"
)

const Version = "1.0"

const (
	TypeState = "STATE"
)

type Base struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
}

// StateMsg carries one published snapshot. State is the serialization
// codec's blob, embedded verbatim.
type StateMsg struct {
	Type            string          `json:"type"`
	ProtocolVersion string          `json:"protocol_version"`
	Category        string          `json:"category"`
	GameVersion     string          `json:"game_version"`
	Players         int             `json:"players"`
	State           json.RawMessage `json:"state"`
}

func EncodeState(category, gameVersion string, players int, blob []byte) ([]byte, error) {
	msg := StateMsg{
		Type:            TypeState,
		ProtocolVersion: Version,
		Category:        category,
		GameVersion:     gameVersion,
		Players:         players,
		State:           blob,
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode state msg: %w", err)
	}
	return b, nil
}

func DecodeBase(data []byte) (Base, error) {
	var b Base
	if err := json.Unmarshal(data, &b); err != nil {
		return b, err
	}
	if b.Type == "" {
		return b, fmt.Errorf("missing type")
	}
	return b, nil
}
