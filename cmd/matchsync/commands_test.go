package main

import (
	"slices"
	"testing"
)

func TestTitlesFor(t *testing.T) {
	t.Parallel()

	configured := []string{"dota2", "valorant"}
	if got := titlesFor("", configured); !slices.Equal(got, configured) {
		t.Fatalf("expected configured titles, got %v", got)
	}
	if got := titlesFor(" CS2 ", configured); !slices.Equal(got, []string{"cs2"}) {
		t.Fatalf("expected flag title, got %v", got)
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	t.Parallel()

	root := newRootCommand()
	for _, name := range []string{"run", "once", "repair"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Fatalf("expected %s subcommand, got %v (%v)", name, cmd, err)
		}
	}

	once, _, _ := root.Find([]string{"once"})
	for _, flag := range []string{"game", "dry-run"} {
		if once.Flags().Lookup(flag) == nil {
			t.Fatalf("expected once --%s flag", flag)
		}
	}
}
