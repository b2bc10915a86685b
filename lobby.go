/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Lobby owns every room and every live connection in the process.
//
// Lock order is always Lobby.mu before Room.mu. Broadcasts happen with only
// the room's lock held, and never block: they queue onto per-client buffers.
type Lobby struct {
	mu      sync.Mutex
	rooms   map[string]*Room   // room id -> room
	clients map[string]*Client // connection id -> live client
	members map[string]string  // connection id -> room id, at most one each

	rng     Random
	metrics *Metrics
	log     *zap.SugaredLogger
}

func newLobby(rng Random, metrics *Metrics, log *zap.SugaredLogger) *Lobby {
	return &Lobby{
		rooms:   make(map[string]*Room),
		clients: make(map[string]*Client),
		members: make(map[string]string),
		rng:     rng,
		metrics: metrics,
		log:     log,
	}
}

// Connect registers a live client that has not joined any room yet.
func (l *Lobby) Connect(c *Client) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.clients[c.id]; ok {
		return
	}

	l.clients[c.id] = c
	l.metrics.OnlineConnections.Inc()
}

// Join seats c in roomID, creating the room if needed. The first player
// seated in a room becomes its host.
func (l *Lobby) Join(c *Client, roomID, name string) error {
	for {
		r, err := l.reserve(c.id, roomID)
		if err != nil {
			return err
		}

		r.mu.Lock()

		// Disconnected while waiting for the room.
		if c.isClosed() {
			r.mu.Unlock()
			l.release(c.id, r)

			return nil
		}

		// Deleted by its last leaver between lookup and lock.
		if r.closed {
			r.mu.Unlock()
			l.release(c.id, r)

			continue
		}

		if err := r.addPlayerLocked(c, name); err != nil {
			r.mu.Unlock()
			l.release(c.id, r)

			return err
		}

		l.log.Infof("GAMES: Player %q (%s) joined %q", name, c.id, roomID)

		l.broadcastLocked(r)
		r.mu.Unlock()

		return nil
	}
}

// reserve records c's membership of roomID and returns the room, creating
// it if needed. Only the lobby lock is taken.
func (l *Lobby) reserve(playerID, roomID string) (*Room, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.members[playerID]; ok {
		return nil, ErrAlreadyJoined
	}

	r, ok := l.rooms[roomID]
	if !ok {
		r = newRoom(roomID)
		l.rooms[roomID] = r
		l.metrics.ActiveRooms.Set(float64(len(l.rooms)))

		l.log.Infof("GAMES: Created room %q", roomID)
	}

	l.members[playerID] = roomID

	return r, nil
}

// release undoes a reservation that did not end in a seat, closing the room
// if nobody else is in it.
func (l *Lobby) release(playerID string, r *Room) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.members[playerID] == r.id {
		delete(l.members, playerID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || len(r.players) > 0 {
		return
	}

	r.closed = true
	if l.rooms[r.id] == r {
		delete(l.rooms, r.id)
		l.metrics.ActiveRooms.Set(float64(len(l.rooms)))
	}
}

// UpdateSettings merges upd into the room's settings if playerID is host.
func (l *Lobby) UpdateSettings(playerID, roomID string, upd SettingsUpdate) error {
	r, err := l.lockRoom(roomID)
	if err != nil {
		return err
	}
	defer r.mu.Unlock()

	if err := r.updateSettingsLocked(playerID, upd); err != nil {
		return err
	}

	l.log.Infof("GAMES: Settings for %q now %+v", roomID, r.settings)

	l.broadcastLocked(r)

	return nil
}

// StartGame deals roles and words if playerID is host and the room is valid.
// pair is only consulted for the custom topic.
func (l *Lobby) StartGame(playerID, roomID string, pair []string) error {
	r, err := l.lockRoom(roomID)
	if err != nil {
		return err
	}
	defer r.mu.Unlock()

	if err := r.startGameLocked(l.rng, playerID, pair); err != nil {
		return err
	}

	l.metrics.GamesStarted.Inc()
	l.log.Infof("GAMES: Started %q with %d players, %d wolves, topic %q",
		roomID, len(r.players), r.settings.WolfCount, r.settings.Topic)

	l.broadcastLocked(r)

	return nil
}

// Disconnect tears down every trace of a connection. Calling it again for
// the same id does nothing.
func (l *Lobby) Disconnect(playerID string) {
	l.mu.Lock()

	c, live := l.clients[playerID]
	if live {
		delete(l.clients, playerID)
		c.close()
		l.metrics.OnlineConnections.Dec()
	}

	roomID, joined := l.members[playerID]
	if !joined {
		l.mu.Unlock()

		return
	}
	delete(l.members, playerID)

	r, ok := l.rooms[roomID]
	if !ok {
		l.mu.Unlock()

		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	empty := r.removePlayerLocked(playerID)
	if empty {
		r.closed = true
		delete(l.rooms, roomID)
		l.metrics.ActiveRooms.Set(float64(len(l.rooms)))
	}

	l.mu.Unlock()

	if empty {
		l.log.Infof("GAMES: Room %q is empty and has been closed", roomID)

		return
	}

	l.log.Infof("GAMES: Player %s left %q, host is %s", playerID, roomID, r.hostID)

	l.broadcastLocked(r)
}

// Snapshot returns a copy of the room's current state.
func (l *Lobby) Snapshot(roomID string) (Snapshot, bool) {
	r, err := l.lockRoom(roomID)
	if err != nil {
		return Snapshot{}, false
	}
	defer r.mu.Unlock()

	return r.snapshotLocked(), true
}

// lockRoom returns roomID with its lock held.
func (l *Lobby) lockRoom(roomID string) (*Room, error) {
	l.mu.Lock()
	r, ok := l.rooms[roomID]
	l.mu.Unlock()

	if !ok {
		return nil, ErrUnknownRoom
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()

		return nil, ErrUnknownRoom
	}

	return r, nil
}

func (l *Lobby) broadcastLocked(r *Room) {
	dropped := r.broadcastLocked()
	if dropped > 0 {
		l.metrics.DroppedClients.Add(float64(dropped))
		l.log.Warnf("SOCKET: Dropped %d slow client(s) from %q", dropped, r.id)
	}
}

// route dispatches one inbound event and delivers any failure to c alone.
func (l *Lobby) route(c *Client, msg ClientMessage) {
	start := time.Now()

	var err error
	switch msg.Type {
	case "join":
		err = l.Join(c, msg.Room, msg.Name)
	case "update_settings":
		if msg.Settings == nil {
			return
		}
		err = l.UpdateSettings(c.id, msg.Room, *msg.Settings)
	case "start_game":
		err = l.StartGame(c.id, msg.Room, msg.CustomPair)
	default:
		l.log.Infof("SOCKET: Ignoring %q from %s", msg.Type, c.id)

		return
	}

	l.metrics.MessagesReceived.WithLabelValues(msg.Type).Inc()
	l.metrics.MessageLatency.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrUnknownRoom):
		l.log.Infof("SOCKET: Ignored %q from %s on %q: %v", msg.Type, c.id, msg.Room, err)
	default:
		l.metrics.Rejected.WithLabelValues(msg.Type).Inc()
		l.log.Infof("SOCKET: Rejected %q from %s on %q: %v", msg.Type, c.id, msg.Room, err)

		c.push(ErrorMessage{
			Type:    "error",
			Message: err.Error(),
		})
	}
}

// closeAll closes every live socket so each runs its own disconnect path.
func (l *Lobby) closeAll() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, c := range l.clients {
		if c.conn != nil {
			_ = c.conn.Close()
		}
	}
}
