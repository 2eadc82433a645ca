package world

import (
	"fmt"

	"github.com/zeusync/grove/internal/core/images"
)

// Handle identifies an arena slot. Handles are never reused, so a stale
// handle never resolves to a newer entity. The zero Handle means "none".
type Handle uint64

// Entity is one simulated actor. Kind never changes after construction;
// a kind change replaces the entity with a new one.
type Entity struct {
	ID       string
	Kind     Kind
	Position Point

	ResourceCount int
	ResourceLimit int
	Health        int
	HealthLimit   int

	ActionPeriod    float64
	AnimationPeriod float64

	ImageIndex int
	Images     images.Frames

	handle Handle
}

// Handle is the arena slot of a registered entity, or 0 when detached.
func (e *Entity) Handle() Handle {
	return e.handle
}

// Alive reports whether the entity is currently registered in a world.
func (e *Entity) Alive() bool {
	return e.handle != 0
}

// CurrentImage returns the handle of the frame being shown.
func (e *Entity) CurrentImage() images.Handle {
	return e.Images.At(e.ImageIndex)
}

// NextImage advances the animation frame, wrapping at the end.
func (e *Entity) NextImage() {
	e.ImageIndex = e.Images.Next(e.ImageIndex)
}

// LogLine renders "<id> <col> <row> <frame>", the diagnostic format used to
// compare runs. Entities without an id have no line.
func (e *Entity) LogLine() (string, bool) {
	if e.ID == "" {
		return "", false
	}
	return fmt.Sprintf("%s %d %d %d", e.ID, e.Position.Col, e.Position.Row, e.ImageIndex), true
}

func (e *Entity) String() string {
	return fmt.Sprintf("%s[%s]@%s", e.Kind, e.ID, e.Position)
}
