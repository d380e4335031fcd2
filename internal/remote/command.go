package remote

import (
	"context"
	"errors"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/omnistep/internal/engine/spatial"
)

// ErrQueueFull is returned when the frame loop is not keeping up.
var ErrQueueFull = errors.New("remote: command queue full")

// Kind names a command.
type Kind string

const (
	KindSetPosition   Kind = "set_position"
	KindImpulse       Kind = "apply_impulse"
	KindRespawn       Kind = "respawn"
	KindDynamicSet    Kind = "dynamic_set"
	KindDynamicRemove Kind = "dynamic_remove"
	KindDynamicClear  Kind = "dynamic_clear"
	KindRayCast       Kind = "ray_cast"
	KindFindNearest   Kind = "find_nearest"
	KindRayCastPlayer Kind = "ray_cast_player"
)

// Command is one request for the frame loop. Only the fields of its Kind
// are set.
type Command struct {
	Kind Kind
	// Vector is the position, impulse, ray origin or query point.
	Vector        mgl32.Vec3
	Direction     mgl32.Vec3
	MaxDistance   float32
	ClearVelocity bool
	// World is the respawn placement; nil cycles the spawn points.
	World  *mgl32.Mat4
	Object spatial.Object
	Name   string

	reply chan Result
}

// Hit is a query result.
type Hit struct {
	Position mgl32.Vec3 `json:"position"`
	Normal   mgl32.Vec3 `json:"normal"`
	ID       int        `json:"id"`
	Distance float32    `json:"distance"`
	Dynamic  bool       `json:"dynamic"`
}

// NewHit converts a spatial hit.
func NewHit(h spatial.Hit) *Hit {
	return &Hit{Position: h.Position, Normal: h.Normal, ID: h.ID, Distance: h.Distance, Dynamic: h.Dynamic}
}

// Result is the frame loop's answer to a command.
type Result struct {
	OK    bool   `json:"ok"`
	Spawn string `json:"spawn,omitempty"`
	Hit   *Hit   `json:"hit,omitempty"`
	Error string `json:"error,omitempty"`
}

// Queue is the bounded hand-off between HTTP handlers and the frame loop.
type Queue struct {
	ch chan Command
}

// NewQueue creates a queue holding up to size commands.
func NewQueue(size int) *Queue {
	if size < 1 {
		size = 1
	}
	return &Queue{ch: make(chan Command, size)}
}

// Submit enqueues a command without waiting for it to run.
func (q *Queue) Submit(cmd Command) error {
	select {
	case q.ch <- cmd:
		return nil
	default:
		return ErrQueueFull
	}
}

// Call enqueues a command and waits for its result.
func (q *Queue) Call(ctx context.Context, cmd Command) (Result, error) {
	cmd.reply = make(chan Result, 1)
	if err := q.Submit(cmd); err != nil {
		return Result{}, err
	}
	select {
	case res := <-cmd.reply:
		return res, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Drain runs every queued command through exec and answers waiting
// callers. It never blocks.
func (q *Queue) Drain(exec func(Command) Result) int {
	n := 0
	for {
		select {
		case cmd := <-q.ch:
			res := exec(cmd)
			if cmd.reply != nil {
				cmd.reply <- res
			}
			n++
		default:
			return n
		}
	}
}

// Len returns the number of waiting commands.
func (q *Queue) Len() int {
	return len(q.ch)
}
