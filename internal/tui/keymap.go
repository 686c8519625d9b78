package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the dashboard.
type KeyMap struct {
	// Navigation
	Left     key.Binding
	Right    key.Binding
	Up       key.Binding
	Down     key.Binding
	PrevPage key.Binding
	NextPage key.Binding

	// Views and filters
	ViewAll      key.Binding
	ViewProjects key.Binding
	ViewStats    key.Binding
	Search       key.Binding
	ToggleTodo   key.Binding
	ToggleDoing  key.Binding
	ToggleDone   key.Binding
	PickProject  key.Binding

	// Actions
	New     key.Binding
	Edit    key.Binding
	Delete  key.Binding
	Open    key.Binding
	Browser key.Binding
	Refresh key.Binding
	Sample  key.Binding
	Logout  key.Binding
	Help    key.Binding
	Quit    key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "previous page / column"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next page / column"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "previous card"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next card"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "previous page"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "next page"),
		),
		ViewAll: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "all cards"),
		),
		ViewProjects: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "projects"),
		),
		ViewStats: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "stats"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		ToggleTodo: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle to do"),
		),
		ToggleDoing: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "toggle doing"),
		),
		ToggleDone: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "toggle done"),
		),
		PickProject: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "choose project"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new card"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit card"),
		),
		Delete: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "delete card"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "card details"),
		),
		Browser: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open in browser"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Sample: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "sample cards (dev)"),
		),
		Logout: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "log out"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns key bindings to be shown in the mini help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.PrevPage, k.NextPage},
		{k.ViewAll, k.ViewProjects, k.ViewStats, k.PickProject, k.Search},
		{k.ToggleTodo, k.ToggleDoing, k.ToggleDone, k.Refresh},
		{k.New, k.Edit, k.Delete, k.Open, k.Browser},
		{k.Sample, k.Logout, k.Help, k.Quit},
	}
}
