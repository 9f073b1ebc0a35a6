// Package proto defines the wire taxonomy: JSON payloads exchanged over one
// websocket connection per player. Every message is an envelope with a type
// name plus the payload fields for that type.
package proto

import "encoding/json"

// Client → server message types.
const (
	TypePlayerConnect   = "player_connect"
	TypePlayerInput     = "player_input"
	TypePlayerReady     = "player_ready"
	TypeTargetDestroyed = "target_destroyed"
)

// Server → client message types.
const (
	TypePlayerSpawned = "player_spawned"
	TypePlayerJoined  = "player_joined"
	TypePlayerLeft    = "player_left"
	TypeGameState     = "game_state"
	TypePlayerHit     = "player_hit"
	TypePlayerDied    = "player_died"
	TypeMatchResult   = "match_result"
)

// Envelope is the outermost frame of every message.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// KeyState carries the raw held-key booleans.
type KeyState struct {
	W     bool `json:"w"`
	A     bool `json:"a"`
	S     bool `json:"s"`
	D     bool `json:"d"`
	Space bool `json:"space"`
	Shift bool `json:"shift"`
	Ctrl  bool `json:"ctrl"`
}

// PlayerConnect announces a new player.
type PlayerConnect struct {
	Name string `json:"name"`
}

// PlayerInput is the per-frame intent sample. Optional fields are pointers
// so the gateway can distinguish absent from zero and type-check each one.
type PlayerInput struct {
	Keys       KeyState `json:"keys"`
	Yaw        *float64 `json:"yaw,omitempty"`
	Pitch      *float64 `json:"pitch,omitempty"`
	MouseX     *float64 `json:"mouseX,omitempty"`
	MouseY     *float64 `json:"mouseY,omitempty"`
	Shoot      *bool    `json:"shoot,omitempty"`
	Reload     *bool    `json:"reload,omitempty"`
	WeaponType *string  `json:"weaponType,omitempty"`
	Timestamp  float64  `json:"timestamp"`
	PlayerID   string   `json:"playerId"`
}

// PlayerReady toggles lobby readiness.
type PlayerReady struct {
	PlayerID string `json:"playerId"`
	IsReady  bool   `json:"isReady"`
}

// TargetDestroyed reports a cosmetic PvE target kill. Non-authoritative.
type TargetDestroyed struct {
	TargetID string `json:"targetId"`
}

// Vec3 is a wire-friendly position triple.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Rotation is the yaw/pitch pair.
type Rotation struct {
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
}

// PlayerSpawned seeds the connecting client with its own avatar.
type PlayerSpawned struct {
	PlayerID string   `json:"playerId"`
	Position Vec3     `json:"position"`
	Rotation Rotation `json:"rotation"`
	Health   float64  `json:"health"`
}

// PlayerJoined announces a new remote avatar.
type PlayerJoined struct {
	PlayerID string `json:"playerId"`
	Position Vec3   `json:"position"`
}

// PlayerLeft announces a disconnect.
type PlayerLeft struct {
	PlayerID string `json:"playerId"`
}

// PlayerSnapshot is one actor inside a game_state broadcast.
type PlayerSnapshot struct {
	Position      Vec3     `json:"position"`
	Rotation      Rotation `json:"rotation"`
	Health        float64  `json:"health"`
	Stamina       float64  `json:"stamina"`
	IsCrouched    bool     `json:"isCrouched"`
	CurrentWeapon string   `json:"currentWeapon"`
}

// ProjectileSnapshot is one live projectile inside a game_state broadcast.
type ProjectileSnapshot struct {
	ID         string `json:"id"`
	OwnerID    string `json:"ownerId"`
	Position   Vec3   `json:"position"`
	Velocity   Vec3   `json:"velocity"`
	WeaponType string `json:"weaponType"`
}

// GameState is the authoritative snapshot broadcast.
type GameState struct {
	Timestamp   int64                     `json:"timestamp"`
	Tick        uint64                    `json:"t"`
	Players     map[string]PlayerSnapshot `json:"players"`
	Projectiles []ProjectileSnapshot      `json:"projectiles,omitempty"`
}

// PlayerHit reports resolved damage.
type PlayerHit struct {
	AttackerID      string  `json:"attackerId"`
	TargetID        string  `json:"targetId"`
	Damage          float64 `json:"damage"`
	RemainingHealth float64 `json:"remainingHealth"`
	WeaponType      string  `json:"weaponType"`
	WasFatal        bool    `json:"wasFatal"`
	IsHeadshot      bool    `json:"isHeadshot,omitempty"`
}

// PlayerDied reports an elimination.
type PlayerDied struct {
	PlayerID string `json:"playerId"`
	KillerID string `json:"killerId"`
}

// MatchResult ends the match.
type MatchResult struct {
	WinnerID string `json:"winnerId"`
	LoserID  string `json:"loserId"`
	KillerID string `json:"killerId"`
}

// Encode wraps a payload in an envelope and marshals it.
func Encode(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}
