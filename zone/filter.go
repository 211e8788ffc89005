package zone

import "time"

// StatusFilter narrows zones by temporal classification.
type StatusFilter string

const (
	FilterStatusAll      StatusFilter = "all"
	FilterStatusActive   StatusFilter = "active"
	FilterStatusUpcoming StatusFilter = "upcoming"
	FilterStatusExpired  StatusFilter = "expired"
)

// TypeFilter narrows zones by hunt type.
type TypeFilter string

const FilterTypeAll TypeFilter = "all"

// TimeRangeFilter narrows zones by when they start.
type TimeRangeFilter string

const (
	FilterRangeAll   TimeRangeFilter = "all"
	FilterRangeToday TimeRangeFilter = "today"
	FilterRangeWeek  TimeRangeFilter = "week"
)

// Filter is the conjunction of three predicates; a zone is kept only when it
// satisfies all of them.
type Filter struct {
	Status    StatusFilter
	Type      TypeFilter
	TimeRange TimeRangeFilter
}

// DefaultFilter is what the map applies on entry.
func DefaultFilter() Filter {
	return Filter{
		Status:    FilterStatusActive,
		Type:      FilterTypeAll,
		TimeRange: FilterRangeAll,
	}
}

// Match reports whether a single zone passes every predicate at the given
// instant.
func (f Filter) Match(z Zone, now time.Time) bool {
	switch f.Status {
	case FilterStatusActive:
		if Classify(z, now) != StatusActive {
			return false
		}
	case FilterStatusUpcoming:
		if Classify(z, now) != StatusUpcoming {
			return false
		}
	case FilterStatusExpired:
		if Classify(z, now) != StatusExpired {
			return false
		}
	}

	if f.Type != "" && f.Type != FilterTypeAll && HuntType(f.Type) != z.Type {
		return false
	}

	switch f.TimeRange {
	case FilterRangeToday:
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		tomorrow := midnight.AddDate(0, 0, 1)
		if z.Start.Before(midnight) || !z.Start.Before(tomorrow) {
			return false
		}
	case FilterRangeWeek:
		// One-sided bound: zones that started in the past still match.
		// This mirrors the shipped behavior; see the filter tests.
		if z.Start.After(now.AddDate(0, 0, 7)) {
			return false
		}
	}

	return true
}

// Apply returns the subsequence of zones matching the filter.
func Apply(zones []Zone, f Filter, now time.Time) []Zone {
	matched := []Zone{}
	for _, z := range zones {
		if f.Match(z, now) {
			matched = append(matched, z)
		}
	}
	return matched
}
