package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType tags a game event.
type EventType string

// Known game event types.
const (
	EventRaceConfigure EventType = "raceConfigure"
	EventRaceStarted   EventType = "raceStarted"
	EventCollision     EventType = "collision"
	EventOvertake      EventType = "overtake"
	EventHandGesture   EventType = "handGesture"
	EventHasFinished   EventType = "hasFinished"
)

// UserRef maps a player slot to the account email behind it. Carried by
// raceStarted events.
type UserRef struct {
	PlayerID int    `json:"playerId"`
	Email    string `json:"email"`
}

// GameEvent is one discrete game occurrence from the session event log.
// Payload fields that only some event kinds carry live behind typed
// accessors so consumers dispatch on Type instead of probing loose keys.
type GameEvent struct {
	SessionID   string
	Type        EventType
	TimestampMS int64
	Player      int // 0 when the event is not attributed to a player

	users    []UserRef
	raceTime *float64
}

// Timestamp converts the event's epoch-millisecond clock to a UTC instant.
func (e GameEvent) Timestamp() time.Time {
	return time.UnixMilli(e.TimestampMS).UTC()
}

// Users returns the player-to-email mapping of a raceStarted event.
// The second return is false for every other event kind.
func (e GameEvent) Users() ([]UserRef, bool) {
	if e.Type != EventRaceStarted || len(e.users) == 0 {
		return nil, false
	}
	return e.users, true
}

// RaceTime returns the finish time of a hasFinished event in seconds.
// The second return is false for every other event kind.
func (e GameEvent) RaceTime() (float64, bool) {
	if e.Type != EventHasFinished || e.raceTime == nil {
		return 0, false
	}
	return *e.raceTime, true
}

// gameEventWire mirrors the jsonl envelope written by the collector.
type gameEventWire struct {
	SessionID       string    `json:"sessionId"`
	EventType       EventType `json:"eventType"`
	TimestampMS     int64     `json:"timestamp"`
	Player          int       `json:"player"`
	Users           []UserRef `json:"users"`
	RaceTimeSeconds *float64  `json:"raceTimeSeconds"`
}

// UnmarshalJSON decodes the wire envelope and keeps only the payload fields
// the event kind defines.
func (e *GameEvent) UnmarshalJSON(data []byte) error {
	var w gameEventWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.EventType == "" {
		return fmt.Errorf("game event without eventType")
	}
	*e = GameEvent{
		SessionID:   w.SessionID,
		Type:        w.EventType,
		TimestampMS: w.TimestampMS,
		Player:      w.Player,
	}
	switch w.EventType {
	case EventRaceStarted:
		e.users = w.Users
	case EventHasFinished:
		e.raceTime = w.RaceTimeSeconds
	case EventRaceConfigure, EventCollision, EventOvertake, EventHandGesture:
		// no payload beyond the envelope
	default:
		// Unknown kinds still merge into the timeline; they just carry
		// no payload accessors.
	}
	return nil
}

// MarshalJSON writes the wire envelope back out, used by the simulator.
func (e GameEvent) MarshalJSON() ([]byte, error) {
	w := gameEventWire{
		SessionID:   e.SessionID,
		EventType:   e.Type,
		TimestampMS: e.TimestampMS,
		Player:      e.Player,
	}
	switch e.Type {
	case EventRaceStarted:
		w.Users = e.users
	case EventHasFinished:
		w.RaceTimeSeconds = e.raceTime
	}
	return json.Marshal(w)
}

// NewRaceStarted builds a raceStarted event carrying the user mapping.
func NewRaceStarted(sessionID string, tsMS int64, users []UserRef) GameEvent {
	return GameEvent{
		SessionID:   sessionID,
		Type:        EventRaceStarted,
		TimestampMS: tsMS,
		users:       users,
	}
}

// NewHasFinished builds a hasFinished event for one player's race time.
func NewHasFinished(sessionID string, tsMS int64, player int, raceTimeSeconds float64) GameEvent {
	return GameEvent{
		SessionID:   sessionID,
		Type:        EventHasFinished,
		TimestampMS: tsMS,
		Player:      player,
		raceTime:    &raceTimeSeconds,
	}
}

// NewPlayerEvent builds a payload-free event attributed to a player, such as
// a collision or an overtake.
func NewPlayerEvent(sessionID string, t EventType, tsMS int64, player int) GameEvent {
	return GameEvent{
		SessionID:   sessionID,
		Type:        t,
		TimestampMS: tsMS,
		Player:      player,
	}
}
