// Package keys contains keybinding definitions for every page.
package keys

import "github.com/charmbracelet/bubbles/key"

// CommonKeys apply on every page unless a text input has focus.
type CommonKeys struct {
	Help  key.Binding
	Log   key.Binding
	Quit  key.Binding
	Close key.Binding
}

// LandingKeys is the test set chooser.
type LandingKeys struct {
	Up     key.Binding
	Down   key.Binding
	Run    key.Binding
	Edit   key.Binding
	Config key.Binding
	New    key.Binding
	Rename key.Binding
	Delete key.Binding
}

// EditKeys is the library/test set editor.
type EditKeys struct {
	Up         key.Binding
	Down       key.Binding
	SwitchPane key.Binding
	Grab       key.Binding
	Copy       key.Binding
	Remove     key.Binding
	Cancel     key.Binding
	Done       key.Binding
}

// ConfigKeys is the settings form.
type ConfigKeys struct {
	Next   key.Binding
	Prev   key.Binding
	Toggle key.Binding
	Upload key.Binding
	Done   key.Binding
	Cancel key.Binding
}

// ProgressKeys is the run progress page.
type ProgressKeys struct {
	Abort key.Binding
	Done  key.Binding
}

// FailureKeys is the failed run page.
type FailureKeys struct {
	Done key.Binding
}

var Common = CommonKeys{
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "toggle help"),
	),
	Log: key.NewBinding(
		key.WithKeys("ctrl+l"),
		key.WithHelp("ctrl+l", "production log"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
	Close: key.NewBinding(
		key.WithKeys("esc", "q"),
		key.WithHelp("esc/q", "close"),
	),
}

var Landing = LandingKeys{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "move up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "move down"),
	),
	Run: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "run tests"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit test set"),
	),
	Config: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "configure"),
	),
	New: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "new test set"),
	),
	Rename: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "rename test set"),
	),
	Delete: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "delete test set"),
	),
}

var Edit = EditKeys{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "move up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "move down"),
	),
	SwitchPane: key.NewBinding(
		key.WithKeys("tab", "h", "l", "left", "right"),
		key.WithHelp("tab", "switch pane"),
	),
	Grab: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "pick up / drop"),
	),
	Copy: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "add to test set"),
	),
	Remove: key.NewBinding(
		key.WithKeys("x", "delete"),
		key.WithHelp("x", "remove test"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
	Done: key.NewBinding(
		key.WithKeys("ctrl+s", "enter"),
		key.WithHelp("ctrl+s", "done"),
	),
}

var Config = ConfigKeys{
	Next: key.NewBinding(
		key.WithKeys("tab", "down"),
		key.WithHelp("tab", "next field"),
	),
	Prev: key.NewBinding(
		key.WithKeys("shift+tab", "up"),
		key.WithHelp("shift+tab", "previous field"),
	),
	Toggle: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "toggle reflash"),
	),
	Upload: key.NewBinding(
		key.WithKeys("ctrl+u"),
		key.WithHelp("ctrl+u", "upload image"),
	),
	Done: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("ctrl+s", "done"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
}

var Progress = ProgressKeys{
	Abort: key.NewBinding(
		key.WithKeys("esc", "a"),
		key.WithHelp("esc", "abort"),
	),
	Done: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "done"),
	),
}

var Failure = FailureKeys{
	Done: key.NewBinding(
		key.WithKeys("enter", "esc"),
		key.WithHelp("enter", "done"),
	),
}

// ShortHelp returns keybindings for the short help view.
func (k LandingKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Run, k.Edit, k.Config, Common.Help}
}

// FullHelp returns keybindings for the full help view.
func (k LandingKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Run},
		{k.Edit, k.Config},
		{k.New, k.Rename, k.Delete},
		{Common.Log, Common.Help, Common.Quit},
	}
}

// ShortHelp returns keybindings for the short help view.
func (k EditKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.SwitchPane, k.Grab, k.Remove, k.Done}
}

// FullHelp returns keybindings for the full help view.
func (k EditKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.SwitchPane},
		{k.Grab, k.Copy, k.Remove, k.Cancel},
		{k.Done, Common.Help, Common.Quit},
	}
}

// ShortHelp returns keybindings for the short help view.
func (k ConfigKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Toggle, k.Done, k.Cancel}
}

// FullHelp returns keybindings for the full help view.
func (k ConfigKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev},
		{k.Toggle, k.Upload},
		{k.Done, k.Cancel, Common.Quit},
	}
}

// ShortHelp returns keybindings for the short help view.
func (k ProgressKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Abort, k.Done, Common.Log}
}

// FullHelp returns keybindings for the full help view.
func (k ProgressKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Abort, k.Done}, {Common.Log, Common.Quit}}
}

// ShortHelp returns keybindings for the short help view.
func (k FailureKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Done, Common.Log}
}

// FullHelp returns keybindings for the full help view.
func (k FailureKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Done}, {Common.Log, Common.Quit}}
}
