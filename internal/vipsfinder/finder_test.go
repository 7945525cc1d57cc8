package vipsfinder

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		output string
		want   string
	}{
		{"vips-8.14.2\n", "8.14.2"},
		{"vips 8.12.1", "8.12.1"},
		{"vips-8.15.1-Fri Jan 12 2024", "8.15.1"},
		{"8.10.0", "8.10.0"},
	}

	for _, tt := range tests {
		t.Run(tt.output, func(t *testing.T) {
			if got := parseVersion(tt.output); got != tt.want {
				t.Errorf("parseVersion(%q) = %q, want %q", tt.output, got, tt.want)
			}
		})
	}
}

func TestAtLeast(t *testing.T) {
	tests := []struct {
		version, min string
		want         bool
	}{
		{"8.14.2", "8.12.0", true},
		{"8.12.0", "8.12.0", true},
		{"8.11.9", "8.12.0", false},
		{"9.0", "8.12.0", true},
		{"garbage", "8.12.0", false},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			if got := AtLeast(tt.version, tt.min); got != tt.want {
				t.Errorf("AtLeast(%q, %q) = %v, want %v", tt.version, tt.min, got, tt.want)
			}
		})
	}
}

func fakeVips(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vips")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFinder_Find(t *testing.T) {
	t.Setenv(EnvVar, "")
	custom := fakeVips(t)

	f := NewFinder(custom)
	f.lookPath = func(string) (string, error) { return "", errors.New("not in PATH") }
	f.runVersion = func(string) (string, error) { return "vips-8.14.2\n", nil }

	info, err := f.Find()
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if info.Version != "8.14.2" || info.Path != custom {
		t.Errorf("Find() = %+v", info)
	}
}

func TestFinder_FindTooOld(t *testing.T) {
	t.Setenv(EnvVar, "")

	f := NewFinder(fakeVips(t))
	f.lookPath = func(string) (string, error) { return "", errors.New("not in PATH") }
	f.runVersion = func(string) (string, error) { return "vips-8.9.1", nil }

	if _, err := f.Find(); err == nil {
		t.Error("Find() should reject vips older than MinVersion")
	}
}

func TestFinder_FindNothing(t *testing.T) {
	t.Setenv(EnvVar, "")

	f := NewFinder("")
	f.lookPath = func(string) (string, error) { return "", errors.New("not in PATH") }

	if _, err := f.Find(); err == nil {
		t.Error("Find() without candidates should fail")
	}
}
