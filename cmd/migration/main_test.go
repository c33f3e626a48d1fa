package main

import (
	"path/filepath"
	"testing"
)

func TestParseSteps(t *testing.T) {
	t.Parallel()

	cases := []struct {
		args    []string
		want    int
		wantErr bool
	}{
		{args: nil, want: 1},
		{args: []string{"3"}, want: 3},
		{args: []string{"0"}, wantErr: true},
		{args: []string{"x"}, wantErr: true},
	}
	for _, tc := range cases {
		got, err := parseSteps(tc.args)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("parseSteps(%v): expected error", tc.args)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("parseSteps(%v) = %d, %v", tc.args, got, err)
		}
	}
}

func TestResolveMigrationsDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	got, err := resolveMigrationsDir(dir)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != dir {
		t.Fatalf("expected %s, got %s", dir, got)
	}

	if _, err := resolveMigrationsDir(filepath.Join(dir, "missing")); err == nil {
		t.Fatalf("expected error for missing dir")
	}
}

func TestWithTextResults(t *testing.T) {
	t.Parallel()

	raw := "postgres://u:p@localhost/matchsync?sslmode=disable"
	if got := withTextResults(raw, false); got != raw {
		t.Fatalf("expected unchanged url, got %s", got)
	}
	got := withTextResults(raw, true)
	want := "postgres://u:p@localhost/matchsync?disable_prepared_binary_result=yes&sslmode=disable"
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}
