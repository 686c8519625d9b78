// Package coordinator decides when the card set has to be fetched again.
//
// It is an explicit state machine driven from the UI update loop. Intents
// (filter changes, view switches, mutations) go in; an Effect comes out that
// names the work the caller has to start. Completions are fed back with the
// sequence number they were issued under, and anything but the latest
// sequence is dropped. At most one card load is ever in flight: intents that
// arrive while one is running are folded into a single follow-up load.
package coordinator

import (
	"log/slog"

	"github.com/h0rv/cardboard/internal/apperr"
	"github.com/h0rv/cardboard/internal/domain"
	"github.com/h0rv/cardboard/internal/query"
	"github.com/h0rv/cardboard/internal/store"
	"github.com/h0rv/cardboard/internal/view"
)

// State is the load state of the card set.
type State int

const (
	Idle State = iota
	Loading
	Loaded
	Error
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// LoadRequest asks the caller to fetch cards for Query and report back with
// LoadFinished(Seq, ...).
type LoadRequest struct {
	Seq   uint64
	Query query.Descriptor
}

// StatsRequest asks the caller to fetch aggregate stats and report back with
// StatsFinished(Seq, ...).
type StatsRequest struct {
	Seq uint64
}

// Notice is a user-visible message.
type Notice struct {
	Text  string
	Error bool
}

// Effect is the work a transition asks for. The zero value means nothing.
type Effect struct {
	Load     *LoadRequest
	Stats    *StatsRequest
	Projects bool // refresh the project name list
	Notice   *Notice
	// SessionEnded is set when a failure means the user has to log in again.
	SessionEnded bool
}

// Empty reports whether the effect asks for nothing.
func (e Effect) Empty() bool {
	return e.Load == nil && e.Stats == nil && !e.Projects && e.Notice == nil && !e.SessionEnded
}

func (e Effect) merge(o Effect) Effect {
	if o.Load != nil {
		e.Load = o.Load
	}
	if o.Stats != nil {
		e.Stats = o.Stats
	}
	e.Projects = e.Projects || o.Projects
	if o.Notice != nil {
		e.Notice = o.Notice
	}
	e.SessionEnded = e.SessionEnded || o.SessionEnded
	return e
}

// pending records intents that arrived while a load was running.
type pending uint8

const (
	pendingFilter pending = 1 << iota // a filter changed; reload only if the query differs
	pendingForce                      // data changed server-side; always reload
)

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithPageSize sets cards per page.
func WithPageSize(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithTotalObserver registers fn to be called whenever the number of cards
// matching the current search changes.
func WithTotalObserver(fn func(total int)) Option {
	return func(c *Coordinator) { c.onTotal = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// Coordinator is the load state machine. It is not safe for concurrent use.
type Coordinator struct {
	state     State
	filters   domain.FilterState
	cards     *store.Store
	page      int
	pageSize  int
	hasLoaded bool

	seq      uint64
	inFlight *LoadRequest
	pending  pending

	statsSeq     uint64
	statsLoading bool
	stats        *domain.Stats

	lastTotal int
	onTotal   func(int)
	logger    *slog.Logger
}

// New creates an idle coordinator over cards.
func New(cards *store.Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		filters:  domain.NewFilterState(),
		cards:    cards,
		page:     1,
		pageSize: view.PageSize,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mount issues the initial load for an authenticated user. Only the first
// call out of Idle does anything.
func (c *Coordinator) Mount(authenticated bool) Effect {
	if c.state != Idle || !authenticated {
		return Effect{}
	}
	return c.startLoad()
}

// SetStatusFilters replaces the status checkboxes. The cards are reloaded if
// the filters changed and a load has already succeeded.
func (c *Coordinator) SetStatusFilters(f domain.StatusFilters) Effect {
	if f == c.filters.Statuses {
		return Effect{}
	}
	c.filters.Statuses = f
	if !c.hasLoaded {
		return Effect{}
	}
	return c.requestLoad(pendingFilter)
}

// ToggleStatus flips one checkbox.
func (c *Coordinator) ToggleStatus(s domain.Status) Effect {
	return c.SetStatusFilters(c.filters.Statuses.Toggle(s))
}

// SelectProject sets the project filter. The cards are reloaded only in
// project view, when the name changed and a load has already succeeded.
func (c *Coordinator) SelectProject(name string) Effect {
	if name == c.filters.ProjectName {
		return Effect{}
	}
	c.filters.ProjectName = name
	if c.filters.ViewMode != domain.ViewProject || !c.hasLoaded {
		return Effect{}
	}
	return c.requestLoad(pendingFilter)
}

// SetViewMode switches the dashboard view. Leaving for all or stats drops a
// selected project and reloads; switching between all and stats otherwise
// reloads nothing. Entering stats fetches stats, entering project view
// refreshes the project list.
func (c *Coordinator) SetViewMode(mode domain.ViewMode) Effect {
	if mode == c.filters.ViewMode {
		return Effect{}
	}
	c.filters.ViewMode = mode
	if c.state == Idle {
		if mode != domain.ViewProject {
			c.filters.ProjectName = ""
		}
		return Effect{}
	}

	var eff Effect
	if mode != domain.ViewProject && c.filters.HasProject() {
		c.filters.ProjectName = ""
		eff = c.requestLoad(pendingFilter)
	}
	switch mode {
	case domain.ViewStats:
		eff.Stats = c.startStats()
	case domain.ViewProject:
		eff.Projects = true
	}
	return eff
}

// SetSearchTerm changes the client-side search. It never reloads.
func (c *Coordinator) SetSearchTerm(term string) {
	if term == c.filters.SearchTerm {
		return
	}
	c.filters.SearchTerm = term
	c.page = 1
	c.publishTotal()
}

// SetPage moves to page n, clamped to the pages available.
func (c *Coordinator) SetPage(n int) {
	c.page = view.ClampPage(n, view.TotalPages(c.Total(), c.pageSize))
}

// NextPage moves one page forward.
func (c *Coordinator) NextPage() {
	c.SetPage(c.page + 1)
}

// PrevPage moves one page back.
func (c *Coordinator) PrevPage() {
	c.SetPage(c.page - 1)
}

// CardsChanged records that cards were created, updated or deleted on the
// server. It always schedules a reload.
func (c *Coordinator) CardsChanged() Effect {
	if c.state == Idle {
		return Effect{}
	}
	eff := c.requestLoad(pendingForce)
	eff.Projects = true
	if c.filters.ViewMode == domain.ViewStats {
		eff.Stats = c.startStats()
	}
	return eff
}

// Refresh is a user-requested reload of whatever the current view shows.
func (c *Coordinator) Refresh() Effect {
	if c.state == Idle {
		return Effect{}
	}
	eff := c.requestLoad(pendingForce)
	switch c.filters.ViewMode {
	case domain.ViewStats:
		eff.Stats = c.startStats()
	case domain.ViewProject:
		eff.Projects = true
	}
	return eff
}

// LoadFinished feeds back the result of a LoadRequest.
func (c *Coordinator) LoadFinished(seq uint64, cards []domain.Card, err error) Effect {
	if c.inFlight == nil || seq != c.inFlight.Seq {
		c.logger.Debug("discarding stale card load", "seq", seq, "latest", c.seq)
		return Effect{}
	}
	done := *c.inFlight
	c.inFlight = nil

	if err != nil {
		c.state = Error
		c.logger.Warn("card load failed", "seq", seq, "error", err)
		eff := failure("Failed to load cards", err)
		if eff.SessionEnded {
			c.pending = 0
			return eff
		}
		return eff.merge(c.followUp(done, false))
	}

	first := !c.hasLoaded
	c.cards.Replace(cards)
	c.state = Loaded
	c.hasLoaded = true
	c.page = 1
	c.logger.Debug("cards loaded", "seq", seq, "count", len(cards))
	c.publishTotal()

	return c.followUp(done, first)
}

// followUp issues at most one load for intents that arrived while done was
// running.
func (c *Coordinator) followUp(done LoadRequest, first bool) Effect {
	p := c.pending
	c.pending = 0

	current := c.currentQuery()
	need := p&pendingForce != 0
	if p&pendingFilter != 0 && !current.Equal(done.Query) {
		need = true
	}
	// Filter changes during the initial load are not recorded as intents.
	if first && !current.Equal(done.Query) {
		need = true
	}
	if !need {
		return Effect{}
	}
	return c.startLoad()
}

// StatsFinished feeds back the result of a StatsRequest.
func (c *Coordinator) StatsFinished(seq uint64, stats domain.Stats, err error) Effect {
	if !c.statsLoading || seq != c.statsSeq {
		c.logger.Debug("discarding stale stats", "seq", seq, "latest", c.statsSeq)
		return Effect{}
	}
	c.statsLoading = false
	if err != nil {
		c.logger.Warn("stats load failed", "seq", seq, "error", err)
		return failure("Failed to load stats", err)
	}
	c.stats = &stats
	return Effect{}
}

// CardDeleted removes a card the server confirmed deleted and schedules a
// reload.
func (c *Coordinator) CardDeleted(id string) Effect {
	if err := c.cards.Remove(id); err != nil {
		c.logger.Debug("deleted card was not loaded", "id", id)
	}
	c.SetPage(c.page)
	c.publishTotal()

	eff := c.CardsChanged()
	eff.Notice = &Notice{Text: "Card deleted"}
	return eff
}

// DeleteFailed reports a failed delete. The card set is left alone.
func (c *Coordinator) DeleteFailed(err error) Effect {
	return failure("Failed to delete card", err)
}

// Failed reports a failed mutation with a notice.
func (c *Coordinator) Failed(what string, err error) Effect {
	return failure(what, err)
}

// Reset returns to Idle on logout or login. The project filter and view mode
// go back to their defaults; search and status filters are kept. Results of
// requests issued before the reset are discarded.
func (c *Coordinator) Reset() {
	c.state = Idle
	c.cards.Clear()
	c.filters.ProjectName = ""
	c.filters.ViewMode = domain.ViewAll
	c.page = 1
	c.hasLoaded = false
	c.seq++
	c.inFlight = nil
	c.pending = 0
	c.statsSeq++
	c.statsLoading = false
	c.stats = nil
	c.publishTotal()
}

// State returns the current load state.
func (c *Coordinator) State() State { return c.state }

// Filters returns the current filter state.
func (c *Coordinator) Filters() domain.FilterState { return c.filters }

// HasLoaded reports whether a load has succeeded since the last reset.
func (c *Coordinator) HasLoaded() bool { return c.hasLoaded }

// InFlight returns the running load, or nil.
func (c *Coordinator) InFlight() *LoadRequest {
	if c.inFlight == nil {
		return nil
	}
	req := *c.inFlight
	return &req
}

// Loaded returns the loaded card set.
func (c *Coordinator) Loaded() []domain.Card { return c.cards.All() }

// Visible returns the searched cards in load order, before pagination.
func (c *Coordinator) Visible() []domain.Card {
	return query.Filter(c.cards.All(), c.filters.SearchTerm)
}

// Columns returns the searched cards split into the three status columns of
// the project view, each in load order.
func (c *Coordinator) Columns() view.Columns {
	term := c.filters.SearchTerm
	return view.Columns{
		Todo:  query.Filter(c.cards.ByStatus(domain.StatusTodo), term),
		Doing: query.Filter(c.cards.ByStatus(domain.StatusDoing), term),
		Done:  query.Filter(c.cards.ByStatus(domain.StatusDone), term),
	}
}

// Page returns the current page of searched cards.
func (c *Coordinator) Page() view.Page {
	return view.Paginate(c.Visible(), c.page, c.pageSize)
}

// PageSize returns cards per page.
func (c *Coordinator) PageSize() int { return c.pageSize }

// Total returns the number of loaded cards matching the search term.
func (c *Coordinator) Total() int { return len(c.Visible()) }

// Stats returns the last fetched stats, or nil.
func (c *Coordinator) Stats() *domain.Stats { return c.stats }

// StatsLoading reports whether a stats fetch is outstanding.
func (c *Coordinator) StatsLoading() bool { return c.statsLoading }

func (c *Coordinator) currentQuery() query.Descriptor {
	project := ""
	if c.filters.ViewMode == domain.ViewProject {
		project = c.filters.ProjectName
	}
	return query.Build(c.filters.Statuses, project)
}

func (c *Coordinator) requestLoad(p pending) Effect {
	if c.state == Idle {
		return Effect{}
	}
	if c.inFlight != nil {
		c.pending |= p
		return Effect{}
	}
	return c.startLoad()
}

func (c *Coordinator) startLoad() Effect {
	c.seq++
	req := &LoadRequest{Seq: c.seq, Query: c.currentQuery()}
	c.inFlight = req
	c.state = Loading
	c.logger.Debug("loading cards", "seq", req.Seq, "query", req.Query.Encode())

	out := *req
	return Effect{Load: &out}
}

func (c *Coordinator) startStats() *StatsRequest {
	c.statsSeq++
	c.statsLoading = true
	return &StatsRequest{Seq: c.statsSeq}
}

func (c *Coordinator) publishTotal() {
	total := c.Total()
	if total == c.lastTotal {
		return
	}
	c.lastTotal = total
	if c.onTotal != nil {
		c.onTotal(total)
	}
}

func failure(what string, err error) Effect {
	if apperr.IsSession(err) {
		text := "Your session has expired. Please log in again."
		if apperr.KindOf(err) == apperr.KindUnauthorized {
			text = "You are not logged in. Please log in again."
		}
		return Effect{Notice: &Notice{Text: text, Error: true}, SessionEnded: true}
	}
	return Effect{Notice: &Notice{Text: what + ": " + err.Error(), Error: true}}
}
