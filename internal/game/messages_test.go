package game

import (
	"encoding/json"
	"testing"
)

func TestParseInbound(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Inbound
	}{
		{
			name: "join with identity",
			raw:  `{"type":"joinGame","playerId":"p1","playerName":"Alice"}`,
			want: JoinGame{PlayerID: "p1", PlayerName: "Alice"},
		},
		{
			name: "join without identity",
			raw:  `{"type":"joinGame"}`,
			want: JoinGame{},
		},
		{
			name: "start",
			raw:  `{"type":"startGame"}`,
			want: StartGame{},
		},
		{
			name: "paddle move",
			raw:  `{"type":"paddleMove","y":212.5}`,
			want: PaddleMove{Y: 212.5},
		},
		{
			name: "ping",
			raw:  `{"type":"ping","timestamp":1700000000000}`,
			want: Ping{Timestamp: 1700000000000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseInbound([]byte(tt.raw))
			if err != nil {
				t.Fatalf("ParseInbound: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestParseInboundRejects(t *testing.T) {
	for _, raw := range []string{
		`{"type":"selfDestruct"}`,
		`{"y":100}`,
		`not json`,
		`{"type":"paddleMove","y":"high"}`,
	} {
		if _, err := ParseInbound([]byte(raw)); err == nil {
			t.Errorf("ParseInbound(%q) accepted, want error", raw)
		}
	}
}

func TestOutboundWireTags(t *testing.T) {
	tests := []struct {
		msg  interface{}
		want string
	}{
		{newPlayerJoined(PlayerInfo{ID: "p1", Name: "Alice", Number: 1}, 1), "playerJoined"},
		{newGameInit("room_1", 2, newState()), "gameInit"},
		{newCanStart(), "canStart"},
		{newGameStarted(newState()), "gameStarted"},
		{newGameUpdate(newState()), "gameUpdate"},
		{newGameEnded(1, Scores{Player1: 11, Player2: 4}), "gameEnded"},
		{newPlayerLeft(PlayerInfo{ID: "p2", Number: 2}, 1), "playerLeft"},
		{newPong(42), "pong"},
		{newError("room is full"), "error"},
	}

	for _, tt := range tests {
		data, err := json.Marshal(tt.msg)
		if err != nil {
			t.Fatalf("marshal %T: %v", tt.msg, err)
		}
		var envelope struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			t.Fatalf("unmarshal envelope: %v", err)
		}
		if envelope.Type != tt.want {
			t.Errorf("%T wire type = %q, want %q", tt.msg, envelope.Type, tt.want)
		}
	}
}

func TestStateWireShape(t *testing.T) {
	data, err := json.Marshal(newState())
	if err != nil {
		t.Fatalf("marshal state: %v", err)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	for _, key := range []string{"ball", "paddles", "status"} {
		if _, ok := m[key]; !ok {
			t.Errorf("state JSON missing %q", key)
		}
	}
}
