package zone

// Style carries the render attributes the map surface applies to a shape.
// The renderer itself is an external collaborator; it only consumes these
// values plus the concrete geometry.
type Style struct {
	Color         string
	FillOpacity   float64
	StrokeOpacity float64
}

const (
	colorBattue   = "#dc2626" // red
	colorApproche = "#f59e0b" // orange
	colorAffut    = "#7c3aed" // purple
	colorInactive = "#6b7280" // gray
)

// StyleFor derives the display style from the hunt type and temporal status.
// Anything other than Active renders gray and dimmed.
func StyleFor(t HuntType, s Status) Style {
	if s != StatusActive {
		return Style{Color: colorInactive, FillOpacity: 0.1, StrokeOpacity: 0.4}
	}

	style := Style{FillOpacity: 0.3, StrokeOpacity: 0.8}
	switch t {
	case TypeBattue:
		style.Color = colorBattue
	case TypeApproche:
		style.Color = colorApproche
	case TypeAffut:
		style.Color = colorAffut
	default:
		style.Color = colorBattue
	}
	return style
}
