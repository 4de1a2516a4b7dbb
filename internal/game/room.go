package game

import (
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand"
	"sync"
	"time"
)

// Sender delivers one outbound message to a participant. The WS layer
// implements it; tests substitute a recorder.
type Sender interface {
	Send(v interface{}) error
}

// Player is one seated participant.
type Player struct {
	sender Sender
	Info   PlayerInfo
}

// Room errors.
var (
	ErrRoomFull      = errors.New("game: room is full")
	ErrNotEnoughSeat = errors.New("game: both seats must be filled to start")
)

// Room owns one match: the authoritative state, up to two participants,
// and the fixed-rate tick loop. All state access goes through the
// mutex; ticks for one room never interleave, while distinct rooms run
// fully in parallel.
type Room struct {
	ID string

	mu      sync.Mutex
	players []*Player
	state   State
	rng     *rand.Rand
	stop    chan struct{}
}

// NewRoom creates an empty room in the waiting state.
func NewRoom(id string) *Room {
	return &Room{
		ID:    id,
		state: newState(),
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// AddPlayer seats a participant, announces them, and sends them the
// session init with their slot number. A third join is rejected.
func (r *Room) AddPlayer(sender Sender, id, name string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.players) >= 2 {
		return 0, ErrRoomFull
	}

	number := len(r.players) + 1
	if name == "" {
		name = fmt.Sprintf("Player %d", number)
	}
	player := &Player{
		sender: sender,
		Info:   PlayerInfo{ID: id, Name: name, Number: number},
	}
	r.players = append(r.players, player)

	r.broadcastLocked(newPlayerJoined(player.Info, len(r.players)), nil)
	r.sendTo(player, newGameInit(r.ID, number, r.state))

	if len(r.players) == 2 {
		r.broadcastLocked(newCanStart(), nil)
	}
	return number, nil
}

// RemovePlayer unseats the participant bound to the sender. The tick
// loop is stopped and a non-empty room reverts to waiting. The return
// value reports whether the room is now empty and should be torn down.
func (r *Room) RemovePlayer(sender Sender) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, p := range r.players {
		if p.sender == sender {
			idx = i
			break
		}
	}
	if idx == -1 {
		return len(r.players) == 0
	}

	left := r.players[idx]
	r.players = append(r.players[:idx], r.players[idx+1:]...)

	r.stopLoopLocked()
	r.state.Status = StatusWaiting

	r.broadcastLocked(newPlayerLeft(left.Info, len(r.players)), nil)
	return len(r.players) == 0
}

// PlayerCount returns the number of seated participants.
func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// Start begins play: scores and ball reset, status moves to playing,
// and the tick loop spins up. It requires both seats filled.
func (r *Room) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.players) != 2 {
		return ErrNotEnoughSeat
	}

	r.state.Status = StatusPlaying
	r.state.Ball = Ball{X: TableWidth / 2, Y: TableHeight / 2, DX: 5, DY: 3}
	r.state.Paddles.Player1.Score = 0
	r.state.Paddles.Player2.Score = 0

	r.stopLoopLocked()
	r.startLoopLocked()

	r.broadcastLocked(newGameStarted(r.state), nil)
	return nil
}

// UpdatePaddle applies a client-reported paddle position for the given
// slot, clamped to the table. Last value wins; the paddle itself is not
// simulated.
func (r *Room) UpdatePaddle(number int, y float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch number {
	case 1:
		r.state.Paddles.Player1.Y = clampPaddleY(y)
	case 2:
		r.state.Paddles.Player2.Y = clampPaddleY(y)
	}
}

// State returns a snapshot of the current game state.
func (r *Room) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// startLoopLocked launches the tick goroutine. Caller holds the mutex.
func (r *Room) startLoopLocked() {
	stop := make(chan struct{})
	r.stop = stop

	go func() {
		ticker := time.NewTicker(time.Second / TickRate)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				r.tick()
			}
		}
	}()
}

// stopLoopLocked stops the tick goroutine if one is running. Every
// terminal transition clears the handle so no timer lingers past the
// end of a match.
func (r *Room) stopLoopLocked() {
	if r.stop != nil {
		close(r.stop)
		r.stop = nil
	}
}

// tick advances the simulation one step and pushes the snapshot to both
// participants.
func (r *Room) tick() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.Status != StatusPlaying {
		return
	}

	r.stepLocked()

	if r.state.Status == StatusEnded {
		winner := 1
		if r.state.Paddles.Player2.Score >= WinScore {
			winner = 2
		}
		r.broadcastLocked(newGameEnded(winner, Scores{
			Player1: r.state.Paddles.Player1.Score,
			Player2: r.state.Paddles.Player2.Score,
		}), nil)
		return
	}

	r.broadcastLocked(newGameUpdate(r.state), nil)
}

// stepLocked runs one physics step: ball advance, wall bounce, paddle
// collision, scoring, win check. Caller holds the mutex.
func (r *Room) stepLocked() {
	ball := &r.state.Ball
	paddles := &r.state.Paddles

	ball.X += ball.DX
	ball.Y += ball.DY

	// Wall bounce with position clamp so a fast ball cannot tunnel out.
	if ball.Y <= BallRadius {
		ball.Y = BallRadius
		if ball.DY < 0 {
			ball.DY = -ball.DY
		}
	} else if ball.Y >= TableHeight-BallRadius {
		ball.Y = TableHeight - BallRadius
		if ball.DY > 0 {
			ball.DY = -ball.DY
		}
	}

	// Left paddle.
	if ball.X >= PaddleLeftOuter && ball.X <= PaddleLeftInner &&
		ball.Y >= paddles.Player1.Y && ball.Y <= paddles.Player1.Y+PaddleHeight {
		ball.DX = math.Min(math.Abs(ball.DX)*SpeedGrowth, MaxBallSpeed)
		ball.DY = bounceDY(ball.DX, paddles.Player1.Y, ball.Y)
	}

	// Right paddle.
	if ball.X >= PaddleRightInner && ball.X <= PaddleRightOuter &&
		ball.Y >= paddles.Player2.Y && ball.Y <= paddles.Player2.Y+PaddleHeight {
		ball.DX = math.Max(-math.Abs(ball.DX)*SpeedGrowth, -MaxBallSpeed)
		ball.DY = bounceDY(-ball.DX, paddles.Player2.Y, ball.Y)
	}

	// Scoring on horizontal exit.
	if ball.X < 0 {
		paddles.Player2.Score++
		r.resetBallLocked()
		r.checkWinLocked()
	} else if ball.X > TableWidth {
		paddles.Player1.Score++
		r.resetBallLocked()
		r.checkWinLocked()
	}
}

// bounceDY recomputes vertical velocity from the contact offset: a
// center hit flies straight, an edge hit leaves at up to 45 degrees.
func bounceDY(speed, paddleY, ballY float64) float64 {
	relative := (paddleY + PaddleHeight/2) - ballY
	normalized := relative / (PaddleHeight / 2)
	angle := normalized * math.Pi / 4
	return speed * -math.Sin(angle)
}

// resetBallLocked recenters the ball with a fresh randomized serve.
func (r *Room) resetBallLocked() {
	dir := 1.0
	if r.rng.Float64() < 0.5 {
		dir = -1.0
	}
	r.state.Ball = Ball{
		X:  TableWidth / 2,
		Y:  TableHeight / 2,
		DX: dir * 5,
		DY: (r.rng.Float64()*2 - 1) * 3,
	}
}

// checkWinLocked ends the match the instant either score reaches the
// threshold. The tick loop is stopped here so no physics run after the
// terminal transition.
func (r *Room) checkWinLocked() {
	if r.state.Paddles.Player1.Score >= WinScore || r.state.Paddles.Player2.Score >= WinScore {
		r.state.Status = StatusEnded
		r.stopLoopLocked()
	}
}

// broadcastLocked sends a message to every participant except the
// excluded sender. Send failures are logged and skipped; a dead
// connection is reaped by its read loop.
func (r *Room) broadcastLocked(msg interface{}, exclude Sender) {
	for _, p := range r.players {
		if p.sender == exclude {
			continue
		}
		r.sendTo(p, msg)
	}
}

func (r *Room) sendTo(p *Player, msg interface{}) {
	if err := p.sender.Send(msg); err != nil {
		log.Printf("game: send to player %s in room %s failed: %v", p.Info.ID, r.ID, err)
	}
}
