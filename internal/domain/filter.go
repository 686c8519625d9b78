package domain

import "strings"

// ViewMode selects the dashboard presentation.
type ViewMode int

const (
	ViewAll ViewMode = iota
	ViewProject
	ViewStats
)

// String returns the view mode name.
func (v ViewMode) String() string {
	switch v {
	case ViewAll:
		return "all"
	case ViewProject:
		return "project"
	case ViewStats:
		return "stats"
	default:
		return "unknown"
	}
}

// StatusFilters holds one checkbox per status.
type StatusFilters struct {
	Todo  bool
	Doing bool
	Done  bool
}

// DefaultStatusFilters returns filters with every status checked.
func DefaultStatusFilters() StatusFilters {
	return StatusFilters{Todo: true, Doing: true, Done: true}
}

// Enabled returns the checked statuses in canonical order.
func (f StatusFilters) Enabled() []Status {
	var out []Status
	for _, s := range AllStatuses {
		if f.Has(s) {
			out = append(out, s)
		}
	}
	return out
}

// Has reports whether the status is checked.
func (f StatusFilters) Has(s Status) bool {
	switch s {
	case StatusTodo:
		return f.Todo
	case StatusDoing:
		return f.Doing
	case StatusDone:
		return f.Done
	default:
		return false
	}
}

// Toggle returns a copy with the status flipped.
func (f StatusFilters) Toggle(s Status) StatusFilters {
	switch s {
	case StatusTodo:
		f.Todo = !f.Todo
	case StatusDoing:
		f.Doing = !f.Doing
	case StatusDone:
		f.Done = !f.Done
	}
	return f
}

// With returns a copy with the status set to on.
func (f StatusFilters) With(s Status, on bool) StatusFilters {
	if f.Has(s) != on {
		return f.Toggle(s)
	}
	return f
}

// StatusFiltersFrom builds filters from a list of status names.
// An empty list yields DefaultStatusFilters.
func StatusFiltersFrom(names []string) (StatusFilters, []string) {
	if len(names) == 0 {
		return DefaultStatusFilters(), nil
	}
	var f StatusFilters
	var unknown []string
	for _, n := range names {
		s, ok := ParseStatus(n)
		if !ok {
			unknown = append(unknown, n)
			continue
		}
		f = f.With(s, true)
	}
	return f, unknown
}

// FilterState is the transient dashboard filter state.
type FilterState struct {
	SearchTerm  string
	Statuses    StatusFilters
	ProjectName string // empty means no project filter
	ViewMode    ViewMode
}

// NewFilterState returns the state a fresh dashboard starts in.
func NewFilterState() FilterState {
	return FilterState{
		Statuses: DefaultStatusFilters(),
		ViewMode: ViewAll,
	}
}

// HasProject reports whether a project filter is active.
func (f FilterState) HasProject() bool {
	return strings.TrimSpace(f.ProjectName) != ""
}
