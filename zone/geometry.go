package zone

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	// MinRadiusMeters and MaxRadiusMeters bound the safety radius of a circle zone.
	MinRadiusMeters = 100.0
	MaxRadiusMeters = 4000.0
	// DefaultRadiusMeters is used when a circle is placed without choosing a radius.
	DefaultRadiusMeters = 500.0
	// MinPolygonPoints is the smallest closed outline a drawn zone may have.
	MinPolygonPoints = 3
)

var (
	ErrGeometryMissing  = errors.New("zone: geometry missing")
	ErrRadiusOutOfRange = fmt.Errorf("zone: radius must be between %.0f and %.0f meters", MinRadiusMeters, MaxRadiusMeters)
	ErrTooFewPoints     = fmt.Errorf("zone: polygon needs at least %d points", MinPolygonPoints)
)

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64
	Lng float64
}

// Geometry is the spatial extent of a zone. It is a closed union: the only
// implementations are Circle and Polygon, and every consumer must dispatch
// exhaustively on the concrete type.
type Geometry interface {
	Validate() error
	sealed()
}

// Circle is a point-and-radius zone placed with a single map click.
type Circle struct {
	Center       Point
	RadiusMeters float64
}

func (Circle) sealed() {}

func (c Circle) Validate() error {
	if c.RadiusMeters < MinRadiusMeters || c.RadiusMeters > MaxRadiusMeters {
		return ErrRadiusOutOfRange
	}
	return nil
}

// Polygon is a hand-drawn zone outline.
type Polygon struct {
	Points []Point
}

func (Polygon) sealed() {}

func (p Polygon) Validate() error {
	if len(p.Points) < MinPolygonPoints {
		return ErrTooFewPoints
	}
	return nil
}

// ClampRadius forces a requested radius into the permitted range.
func ClampRadius(r float64) float64 {
	if r < MinRadiusMeters {
		return MinRadiusMeters
	}
	if r > MaxRadiusMeters {
		return MaxRadiusMeters
	}
	return r
}

// Wire format for geometry, shared by the persistence layer and the API.
// Circles serialize as {"type":"circle","lat":…,"lng":…,"radius":…} and
// polygons as {"type":"polygon","points":[[lat,lng],…]}.
type geometryWire struct {
	Type   string       `json:"type"`
	Lat    float64      `json:"lat,omitempty"`
	Lng    float64      `json:"lng,omitempty"`
	Radius float64      `json:"radius,omitempty"`
	Points [][2]float64 `json:"points,omitempty"`
}

// EncodeGeometry serializes a geometry to its wire representation.
func EncodeGeometry(g Geometry) ([]byte, error) {
	switch v := g.(type) {
	case Circle:
		return json.Marshal(geometryWire{
			Type:   "circle",
			Lat:    v.Center.Lat,
			Lng:    v.Center.Lng,
			Radius: v.RadiusMeters,
		})
	case Polygon:
		points := make([][2]float64, 0, len(v.Points))
		for _, p := range v.Points {
			points = append(points, [2]float64{p.Lat, p.Lng})
		}
		return json.Marshal(geometryWire{Type: "polygon", Points: points})
	case nil:
		return nil, ErrGeometryMissing
	default:
		return nil, fmt.Errorf("zone: unknown geometry %T", g)
	}
}

// DecodeGeometry parses the wire representation back into the union.
func DecodeGeometry(data []byte) (Geometry, error) {
	var wire geometryWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("zone: decode geometry: %w", err)
	}

	switch wire.Type {
	case "circle":
		return Circle{
			Center:       Point{Lat: wire.Lat, Lng: wire.Lng},
			RadiusMeters: wire.Radius,
		}, nil
	case "polygon":
		points := make([]Point, 0, len(wire.Points))
		for _, p := range wire.Points {
			points = append(points, Point{Lat: p[0], Lng: p[1]})
		}
		return Polygon{Points: points}, nil
	default:
		return nil, fmt.Errorf("zone: unknown geometry type %q", wire.Type)
	}
}
