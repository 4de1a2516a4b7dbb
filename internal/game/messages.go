package game

import (
	"encoding/json"
	"fmt"
)

// Inbound message kinds.
const (
	kindJoin       = "joinGame"
	kindStart      = "startGame"
	kindPaddleMove = "paddleMove"
	kindPing       = "ping"
)

// Inbound is one parsed client message. The concrete types below are
// the only implementations; dispatch switches over them exhaustively.
type Inbound interface {
	inbound()
}

// JoinGame asks to be seated in a match.
type JoinGame struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

// StartGame asks to begin play once both seats are filled.
type StartGame struct{}

// PaddleMove reports the client's paddle position. Last value wins.
type PaddleMove struct {
	Y float64 `json:"y"`
}

// Ping carries a client timestamp to be echoed back.
type Ping struct {
	Timestamp int64 `json:"timestamp"`
}

func (JoinGame) inbound()   {}
func (StartGame) inbound()  {}
func (PaddleMove) inbound() {}
func (Ping) inbound()       {}

// ParseInbound decodes a wire message into its typed variant. Unknown
// kinds and malformed payloads return an error; the caller logs and
// drops them without killing the match.
func ParseInbound(data []byte) (Inbound, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("malformed message: %v", err)
	}

	switch envelope.Type {
	case kindJoin:
		var m JoinGame
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("malformed %s: %v", kindJoin, err)
		}
		return m, nil
	case kindStart:
		return StartGame{}, nil
	case kindPaddleMove:
		var m PaddleMove
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("malformed %s: %v", kindPaddleMove, err)
		}
		return m, nil
	case kindPing:
		var m Ping
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("malformed %s: %v", kindPing, err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown message type %q", envelope.Type)
	}
}

// Outbound message payloads. Every struct carries its own type tag so a
// snapshot can be marshaled directly onto the wire.

// PlayerInfo identifies a seated participant.
type PlayerInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Number int    `json:"number,omitempty"`
}

// PlayerJoined announces a new participant to the room.
type PlayerJoined struct {
	Type         string     `json:"type"`
	Player       PlayerInfo `json:"player"`
	TotalPlayers int        `json:"totalPlayers"`
}

// GameInit hands a joining participant their seat and the full state.
type GameInit struct {
	Type         string `json:"type"`
	RoomID       string `json:"roomId"`
	PlayerNumber int    `json:"playerNumber"`
	GameState    State  `json:"gameState"`
}

// CanStart tells the room both seats are filled.
type CanStart struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// GameStarted announces the transition to playing.
type GameStarted struct {
	Type      string `json:"type"`
	GameState State  `json:"gameState"`
}

// GameUpdate is the per-tick full state snapshot. No delta compression;
// the state is small enough to resend whole.
type GameUpdate struct {
	Type      string `json:"type"`
	GameState State  `json:"gameState"`
}

// GameEnded announces the winner once a score reaches the threshold.
type GameEnded struct {
	Type   string `json:"type"`
	Winner int    `json:"winner"`
	Scores Scores `json:"scores"`
}

// Scores is the final scoreline.
type Scores struct {
	Player1 int `json:"player1"`
	Player2 int `json:"player2"`
}

// PlayerLeft announces a departure to the remaining participant.
type PlayerLeft struct {
	Type         string     `json:"type"`
	Player       PlayerInfo `json:"player"`
	TotalPlayers int        `json:"totalPlayers"`
}

// Pong echoes the client's ping timestamp for RTT measurement.
type Pong struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

// ErrorMessage reports a rejected request, e.g. joining a full room.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func newPlayerJoined(p PlayerInfo, total int) PlayerJoined {
	return PlayerJoined{Type: "playerJoined", Player: p, TotalPlayers: total}
}

func newGameInit(roomID string, number int, state State) GameInit {
	return GameInit{Type: "gameInit", RoomID: roomID, PlayerNumber: number, GameState: state}
}

func newCanStart() CanStart {
	return CanStart{Type: "canStart", Message: "both players ready, game can start"}
}

func newGameStarted(state State) GameStarted {
	return GameStarted{Type: "gameStarted", GameState: state}
}

func newGameUpdate(state State) GameUpdate {
	return GameUpdate{Type: "gameUpdate", GameState: state}
}

func newGameEnded(winner int, scores Scores) GameEnded {
	return GameEnded{Type: "gameEnded", Winner: winner, Scores: scores}
}

func newPlayerLeft(p PlayerInfo, total int) PlayerLeft {
	return PlayerLeft{Type: "playerLeft", Player: p, TotalPlayers: total}
}

func newPong(timestamp int64) Pong {
	return Pong{Type: "pong", Timestamp: timestamp}
}

func newError(message string) ErrorMessage {
	return ErrorMessage{Type: "error", Message: message}
}
