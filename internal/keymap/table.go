// Package keymap manages keyd configuration for the cabinet controls.
//
// The cabinet's encoder board sends plain keyboard scancodes. /etc/keyd/common
// names each one after the control it is wired to (p1_up, p2_coin, ...), and
// a per-game profile maps those aliases back to whatever keys the game wants.
package keymap

import (
	"fmt"
	"io"
)

// Binding maps a control alias to a keyd key name.
type Binding struct {
	Alias string
	Key   string
}

// Table is an ordered, read-only alias table.
type Table struct {
	bindings []Binding
	index    map[string]string
}

// NewTable builds a table. Duplicate aliases are rejected.
func NewTable(bindings []Binding) (*Table, error) {
	t := &Table{
		bindings: append([]Binding(nil), bindings...),
		index:    make(map[string]string, len(bindings)),
	}
	for _, b := range bindings {
		if _, dup := t.index[b.Alias]; dup {
			return nil, fmt.Errorf("duplicate alias %q", b.Alias)
		}
		t.index[b.Alias] = b.Key
	}
	return t, nil
}

// Bindings returns a copy of the table in order.
func (t *Table) Bindings() []Binding {
	return append([]Binding(nil), t.bindings...)
}

// Key returns the key bound to alias.
func (t *Table) Key(alias string) (string, bool) {
	k, ok := t.index[alias]
	return k, ok
}

// Len returns the number of bindings.
func (t *Table) Len() int {
	return len(t.bindings)
}

// CabinetTable is the wiring of the two-player control panel.
func CabinetTable() *Table {
	t, err := NewTable([]Binding{
		{"p1_up", "up"},
		{"p1_down", "down"},
		{"p1_left", "left"},
		{"p1_right", "right"},
		{"p1_1", "leftcontrol"},
		{"p1_2", "leftalt"},
		{"p1_3", "space"},
		{"p1_4", "leftshift"},
		{"p1_5", "z"},
		{"p1_6", "x"},
		{"p1_7", "c"},
		{"p1_8", "v"},
		{"p1_a", "p"},
		{"p1_b", "enter"},
		{"p1_coin", "5"},
		{"p1_start", "1"},

		{"p2_up", "r"},
		{"p2_down", "f"},
		{"p2_left", "d"},
		{"p2_right", "g"},
		{"p2_1", "a"},
		{"p2_2", "s"},
		{"p2_3", "q"},
		{"p2_4", "w"},
		{"p2_5", "i"},
		{"p2_6", "k"},
		{"p2_7", "j"},
		{"p2_8", "l"},
		{"p2_a", "tab"},
		{"p2_b", "esc"},
		{"p2_coin", "6"},
		{"p2_start", "2"},
	})
	if err != nil {
		panic(err)
	}
	return t
}

// DeviceID is the keyd id of the cabinet's encoder board.
const DeviceID = "d208:0310:bc611fc2"

// WriteCommon renders /etc/keyd/common: raw keys become aliases, and the
// p1_a button sends SIGTERM to a running "vent launch".
func WriteCommon(w io.Writer, t *Table) error {
	if _, err := fmt.Fprintf(w, "[ids]\n\n%s\n\n[aliases]\n\n", DeviceID); err != nil {
		return err
	}
	for _, b := range t.bindings {
		if _, err := fmt.Fprintf(w, "%s = %s\n", b.Key, b.Alias); err != nil {
			return err
		}
	}
	_, err := fmt.Fprint(w, "\n[main]\n\np1_a = command(pkill -f -15 \"vent launch\")\n")
	return err
}

// WriteProfile renders a per-game profile. It starts as the identity
// mapping and is meant to be edited by hand.
func WriteProfile(w io.Writer, appID, name string, t *Table) error {
	if _, err := fmt.Fprintf(w, "# Configuration for %s\n# Steam appID: %s\n\ninclude common\n\n[main]\n\n", name, appID); err != nil {
		return err
	}
	for _, b := range t.bindings {
		if _, err := fmt.Fprintf(w, "%s = %s\n", b.Alias, b.Key); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}
