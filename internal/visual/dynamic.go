package visual

import (
	"time"

	"github.com/beetlebugorg/atlas/internal/apperror"
)

// State is the playback state of a dynamic projection.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "stopped"
	}
}

// DefaultInterval is the frame interval when none is given.
const DefaultInterval = time.Second

// DynamicProjection is an ordered sequence of projections on one artifact,
// played back one frame per interval.
type DynamicProjection struct {
	id       string
	artifact Artifact
	frames   []Projection
	interval time.Duration
	loop     bool

	state State
	next  int
	shown Projection

	// run identifies the current playback; ticks from an older run are
	// ignored.
	run  uint64
	stop chan struct{}
}

// NewDynamicProjection creates a dynamic projection. Every frame must
// control the same artifact.
func NewDynamicProjection(id string, frames []Projection, interval time.Duration, loop bool) (*DynamicProjection, error) {
	if id == "" {
		return nil, apperror.Developer("NewDynamicProjection", "dynamic projection needs an id")
	}
	if len(frames) == 0 {
		return nil, apperror.Developer("NewDynamicProjection", "dynamic projection %s has no frames", id)
	}
	for i, f := range frames {
		if f == nil {
			return nil, apperror.Developer("NewDynamicProjection", "frame %d of %s is nil", i, id)
		}
	}
	artifact := frames[0].Artifact()
	for i, f := range frames {
		if f.Artifact() != artifact {
			return nil, apperror.Developer("NewDynamicProjection", "frame %d of %s controls %s, want %s", i, id, f.Artifact(), artifact)
		}
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &DynamicProjection{
		id:       id,
		artifact: artifact,
		frames:   frames,
		interval: interval,
		loop:     loop,
	}, nil
}

func (d *DynamicProjection) ID() string              { return d.id }
func (d *DynamicProjection) Artifact() Artifact      { return d.artifact }
func (d *DynamicProjection) Frames() []Projection    { return d.frames }
func (d *DynamicProjection) Interval() time.Duration { return d.interval }
func (d *DynamicProjection) State() State            { return d.state }

// Frame returns the index of the frame on screen, or -1.
func (d *DynamicProjection) Frame() int {
	if d.shown == nil {
		return -1
	}
	return d.next - 1
}

// halt ends the ticker goroutine of the current run.
func (d *DynamicProjection) halt() {
	if d.stop != nil {
		close(d.stop)
		d.stop = nil
	}
	d.run++
}
