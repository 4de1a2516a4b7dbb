package game

// Table geometry and physics constants. The table is 800x450 with
// vertical paddles of height 100 inset from the side walls.
const (
	TableWidth   = 800.0
	TableHeight  = 450.0
	PaddleHeight = 100.0
	BallRadius   = 8.0

	// Horizontal bands in which paddle collision is tested.
	PaddleLeftOuter  = 30.0
	PaddleLeftInner  = 42.0
	PaddleRightInner = 758.0
	PaddleRightOuter = 770.0

	// Paddle positions are clamped to [0, TableHeight-PaddleHeight].
	PaddleMaxY = TableHeight - PaddleHeight

	SpeedGrowth  = 1.05 // horizontal speed gain per paddle hit
	MaxBallSpeed = 15.0

	WinScore = 11
	TickRate = 60 // simulation ticks per second
)

// Status is the match lifecycle state.
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusPlaying Status = "playing"
	StatusEnded   Status = "ended"
)

// Ball is the ball's position and velocity.
type Ball struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// Paddle is one participant's paddle position and score.
type Paddle struct {
	Y     float64 `json:"y"`
	Score int     `json:"score"`
}

// Paddles holds both participant slots.
type Paddles struct {
	Player1 Paddle `json:"player1"`
	Player2 Paddle `json:"player2"`
}

// State is the authoritative game state owned by the server. Clients
// observe it; they control nothing but their own paddle input.
type State struct {
	Ball    Ball    `json:"ball"`
	Paddles Paddles `json:"paddles"`
	Status  Status  `json:"status"`
}

// newState returns the pre-game state: ball centered, paddles centered,
// waiting for participants.
func newState() State {
	return State{
		Ball:   Ball{X: TableWidth / 2, Y: TableHeight / 2, DX: 5, DY: 3},
		Status: StatusWaiting,
		Paddles: Paddles{
			Player1: Paddle{Y: (TableHeight - PaddleHeight) / 2},
			Player2: Paddle{Y: (TableHeight - PaddleHeight) / 2},
		},
	}
}

// clampPaddleY keeps a client-reported paddle position on the table.
// The server trusts the reported value otherwise.
func clampPaddleY(y float64) float64 {
	if y < 0 {
		return 0
	}
	if y > PaddleMaxY {
		return PaddleMaxY
	}
	return y
}
