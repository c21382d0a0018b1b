package tui

import "testing"

// TestKeyMapDefaults verifies the dashboard key bindings.
func TestKeyMapDefaults(t *testing.T) {
	k := newKeyMap()
	if got := k.quit.Keys(); len(got) != 2 || got[0] != "q" || got[1] != "ctrl+c" {
		t.Fatalf("unexpected quit keys %#v", got)
	}
	if got := k.record.Keys(); len(got) != 1 || got[0] != "n" {
		t.Fatalf("unexpected record keys %#v", got)
	}
	if got := k.report.Keys(); len(got) != 2 || got[0] != "i" || got[1] != "enter" {
		t.Fatalf("unexpected report keys %#v", got)
	}
	if got := k.yank.Keys(); len(got) != 1 || got[0] != "y" {
		t.Fatalf("unexpected yank keys %#v", got)
	}
	if got := k.focusNext.Keys(); len(got) != 1 || got[0] != "tab" {
		t.Fatalf("unexpected focus keys %#v", got)
	}
}

// TestKeyMapHelpGroups verifies help surfaces include the core actions.
func TestKeyMapHelpGroups(t *testing.T) {
	k := newKeyMap()
	if len(k.ShortHelp()) == 0 {
		t.Fatal("expected short help bindings")
	}
	rows := k.FullHelp()
	if len(rows) != 2 {
		t.Fatalf("expected two full-help rows, got %d", len(rows))
	}
	found := false
	for _, row := range rows {
		for _, binding := range row {
			if binding.Help().Key == "y" {
				found = true
			}
		}
	}
	if !found {
		t.Fatal("expected yank binding in full help")
	}
}
