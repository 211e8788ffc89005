package zone

import (
	"context"
	"time"

	"safehunt/access"
)

// CreatorState enumerates the phases of the interactive creation workflow.
type CreatorState string

const (
	StateIdle         CreatorState = "idle"
	StatePlacingPoint CreatorState = "placing_point"
	StateDrawing      CreatorState = "drawing"
	StateDraftReady   CreatorState = "draft_ready"
	StatePersisting   CreatorState = "persisting"
)

// Persister is where a finished draft goes; *Service satisfies it.
type Persister interface {
	Create(ctx context.Context, sess access.Session, params CreateParams) (Zone, error)
}

// Draft is the zone being assembled.
type Draft struct {
	Type        HuntType
	Start       time.Time
	End         time.Time
	Description string
	Geometry    Geometry
}

// Creator turns map interaction into a validated draft and then a persisted
// record. It is driven by one UI session and is not safe for concurrent use.
type Creator struct {
	persist Persister
	sess    access.Session
	now     func() time.Time

	state  CreatorState
	draft  Draft
	points []Point
	radius float64
}

// NewCreator starts an idle workflow for the given session.
func NewCreator(persist Persister, sess access.Session) *Creator {
	return &Creator{
		persist: persist,
		sess:    sess,
		now:     time.Now,
		state:   StateIdle,
		draft:   Draft{Type: TypeBattue},
		radius:  DefaultRadiusMeters,
	}
}

// WithClock replaces the wall clock, for tests.
func (c *Creator) WithClock(now func() time.Time) *Creator {
	c.now = now
	return c
}

func (c *Creator) State() CreatorState { return c.state }

// Draft returns the zone under construction.
func (c *Creator) Draft() Draft { return c.draft }

// Radius returns the current circle radius in meters.
func (c *Creator) Radius() float64 { return c.radius }

// PointCount reports how many outline points have been accumulated.
func (c *Creator) PointCount() int { return len(c.points) }

// ChooseCircle arms single-click placement of a circular zone.
func (c *Creator) ChooseCircle() {
	if c.state != StateIdle {
		return
	}
	c.state = StatePlacingPoint
}

// ChooseDraw arms multi-click polygon drawing.
func (c *Creator) ChooseDraw() {
	if c.state != StateIdle {
		return
	}
	c.points = nil
	c.state = StateDrawing
}

// Click handles a map click. In placement mode one click produces a circle
// draft; in drawing mode each click appends an outline point.
func (c *Creator) Click(p Point) {
	switch c.state {
	case StatePlacingPoint:
		c.draft.Geometry = Circle{Center: p, RadiusMeters: c.radius}
		c.state = StateDraftReady
	case StateDrawing:
		c.points = append(c.points, p)
	}
}

// Finish closes the drawn outline. With fewer than MinPolygonPoints points it
// is a no-op and the workflow stays in drawing mode.
func (c *Creator) Finish() {
	if c.state != StateDrawing || len(c.points) < MinPolygonPoints {
		return
	}
	c.draft.Geometry = Polygon{Points: c.points}
	c.state = StateDraftReady
}

// CancelDrawing abandons the in-progress outline and returns to idle.
func (c *Creator) CancelDrawing() {
	if c.state != StateDrawing {
		return
	}
	c.points = nil
	c.state = StateIdle
}

// Cancel discards everything and resets the workflow.
func (c *Creator) Cancel() {
	c.reset()
}

// SetRadius clamps the requested radius into range and, when a circle draft
// exists, resizes it in place.
func (c *Creator) SetRadius(r float64) {
	c.radius = ClampRadius(r)
	if circle, ok := c.draft.Geometry.(Circle); ok {
		circle.RadiusMeters = c.radius
		c.draft.Geometry = circle
	}
}

// SetType records the hunt type for the draft.
func (c *Creator) SetType(t HuntType) {
	c.draft.Type = t
}

// SetSchedule records the announced time window.
func (c *Creator) SetSchedule(start, end time.Time) {
	c.draft.Start = start
	c.draft.End = end
}

// SetDescription records the optional free-text note.
func (c *Creator) SetDescription(desc string) {
	c.draft.Description = desc
}

// Submit validates the draft and persists it. Validation failures leave the
// workflow in DraftReady with no write issued; success resets to idle and
// returns the stored zone so the caller can close the creation UI.
func (c *Creator) Submit(ctx context.Context) (Zone, error) {
	if c.state != StateDraftReady {
		return Zone{}, ErrGeometryMissing
	}

	params := CreateParams{
		Type:        c.draft.Type,
		Start:       c.draft.Start,
		End:         c.draft.End,
		Description: c.draft.Description,
		Geometry:    c.draft.Geometry,
	}

	if err := validateDraft(params, c.now()); err != nil {
		return Zone{}, err
	}

	c.state = StatePersisting
	created, err := c.persist.Create(ctx, c.sess, params)
	if err != nil {
		c.state = StateDraftReady
		return Zone{}, err
	}

	c.reset()
	return created, nil
}

func (c *Creator) reset() {
	c.state = StateIdle
	c.points = nil
	c.draft = Draft{Type: TypeBattue}
	c.radius = DefaultRadiusMeters
}
