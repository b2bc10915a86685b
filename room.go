/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"slices"
	"sync"
)

type RoomState string

const (
	StateWaiting        RoomState = "waiting"
	StateRoleAssignment RoomState = "role_assignment"
)

const minPlayers = 3

// Player is a seat in a room. Role and Word stay empty until a game is dealt.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role,omitempty"`
	Word string `json:"word,omitempty"`
}

type Settings struct {
	WolfCount  int      `json:"wolf_count"`
	Topic      string   `json:"topic"`
	CustomPair []string `json:"custom_pair,omitempty"`
}

// SettingsUpdate is a partial Settings; nil fields are left unchanged.
type SettingsUpdate struct {
	WolfCount  *int     `json:"wolf_count,omitempty"`
	Topic      *string  `json:"topic,omitempty"`
	CustomPair []string `json:"custom_pair,omitempty"`
}

// Snapshot is the complete state of a room as sent to its members.
type Snapshot struct {
	ID       string    `json:"id"`
	HostID   string    `json:"host_id"`
	State    RoomState `json:"state"`
	Players  []Player  `json:"players"`
	Settings Settings  `json:"settings"`
}

// Room holds one session. Every field below mu is guarded by it; methods
// with a Locked suffix assume the caller holds it.
type Room struct {
	mu sync.Mutex

	id       string
	hostID   string
	state    RoomState
	players  []Player
	settings Settings

	// clients maps connection id to the live client receiving broadcasts.
	clients map[string]*Client

	// closed is set once the room has been removed from the lobby, so late
	// callers holding a stale pointer treat it as unknown.
	closed bool
}

// newRoom returns an empty room; its first seated player becomes host.
func newRoom(id string) *Room {
	return &Room{
		id:    id,
		state: StateWaiting,
		settings: Settings{
			WolfCount: 1,
			Topic:     defaultTopic(),
		},
		clients: make(map[string]*Client),
	}
}

func (r *Room) snapshotLocked() Snapshot {
	players := make([]Player, len(r.players))
	copy(players, r.players)

	settings := r.settings
	settings.CustomPair = slices.Clone(r.settings.CustomPair)

	return Snapshot{
		ID:       r.id,
		HostID:   r.hostID,
		State:    r.state,
		Players:  players,
		Settings: settings,
	}
}

func (r *Room) indexOfLocked(playerID string) int {
	return slices.IndexFunc(r.players, func(p Player) bool {
		return p.ID == playerID
	})
}

func (r *Room) addPlayerLocked(c *Client, name string) error {
	if r.state != StateWaiting {
		return ErrGameInProgress
	}

	if r.indexOfLocked(c.id) >= 0 {
		return ErrAlreadyJoined
	}

	if len(r.players) == 0 {
		r.hostID = c.id
	}

	r.players = append(r.players, Player{
		ID:   c.id,
		Name: name,
	})
	r.clients[c.id] = c

	return nil
}

// removePlayerLocked drops playerID from the room and reports whether the
// room is now empty. The host moves to the earliest remaining joiner.
func (r *Room) removePlayerLocked(playerID string) bool {
	i := r.indexOfLocked(playerID)
	if i < 0 {
		return len(r.players) == 0
	}

	r.players = slices.Delete(r.players, i, i+1)
	delete(r.clients, playerID)

	if len(r.players) == 0 {
		return true
	}

	if r.hostID == playerID {
		r.hostID = r.players[0].ID
	}

	return false
}

func (r *Room) updateSettingsLocked(playerID string, upd SettingsUpdate) error {
	if playerID != r.hostID {
		return ErrUnauthorized
	}

	if upd.WolfCount != nil && *upd.WolfCount < 1 {
		return ErrInvalidWolfCount
	}

	if upd.WolfCount != nil {
		r.settings.WolfCount = *upd.WolfCount
	}
	if upd.Topic != nil {
		r.settings.Topic = *upd.Topic
	}
	if upd.CustomPair != nil {
		r.settings.CustomPair = slices.Clone(upd.CustomPair)
	}

	return nil
}

// startGameLocked validates the room and deals roles and words to every
// player in join order. A room already in role_assignment is re-dealt.
func (r *Room) startGameLocked(rng Random, playerID string, pairOverride []string) error {
	if playerID != r.hostID {
		return ErrUnauthorized
	}

	if len(r.players) < minPlayers {
		return ErrInvalidPlayerCount
	}

	if r.settings.WolfCount >= len(r.players) {
		return ErrInvalidWolfCount
	}

	var pair WordPair
	if r.settings.Topic == customTopic {
		words := pairOverride
		if words == nil {
			words = r.settings.CustomPair
		}

		var err error
		pair, err = customPair(words)
		if err != nil {
			return err
		}
	} else {
		pair = pickPair(rng, r.settings.Topic)
	}

	deal, err := assign(rng, len(r.players), r.settings.WolfCount, pair)
	if err != nil {
		return err
	}

	for i := range r.players {
		r.players[i].Role = deal.Roles[i]
		r.players[i].Word = deal.WordFor(i)
	}
	r.state = StateRoleAssignment

	return nil
}

// broadcastLocked queues the current snapshot for every member and returns
// the number of clients dropped for having a full queue.
func (r *Room) broadcastLocked() int {
	msg := RoomUpdateMessage{
		Type: "room_update",
		Room: r.snapshotLocked(),
	}

	dropped := 0
	for _, p := range r.players {
		c, ok := r.clients[p.ID]
		if !ok {
			continue
		}

		if _, d := c.push(msg); d {
			dropped++
		}
	}

	return dropped
}
