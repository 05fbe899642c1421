package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFolderPaths(t *testing.T) {
	if got := ParentFolder("perf/web/checkout"); got != "perf/web" {
		t.Errorf("ParentFolder = %q", got)
	}
	if got := ParentFolder("perf"); got != "" {
		t.Errorf("ParentFolder(top level) = %q, want root", got)
	}
	if got := JoinFolder("", "perf"); got != "perf" {
		t.Errorf("JoinFolder(root) = %q", got)
	}
	if diff := cmp.Diff([]string{"a/b", "a"}, Ancestors("a/b/c")); diff != "" {
		t.Errorf("Ancestors (-want +got):\n%s", diff)
	}
	if got := Ancestors("a"); got != nil {
		t.Errorf("Ancestors(top level) = %v, want nil", got)
	}
}

func TestInFolder(t *testing.T) {
	tests := []struct {
		path, folder string
		want         bool
	}{
		{"perf", "perf", true},
		{"perf/web", "perf", true},
		{"perfx", "perf", false},
		{"", "perf", false},
		{"anything", "", true},
	}
	for _, tt := range tests {
		if got := InFolder(tt.path, tt.folder); got != tt.want {
			t.Errorf("InFolder(%q, %q) = %v, want %v", tt.path, tt.folder, got, tt.want)
		}
	}
}

func TestReprefix(t *testing.T) {
	tests := []struct {
		path, from, to, want string
	}{
		{"a/b", "a/b", "a/c", "a/c"},
		{"a/b/x/y", "a/b", "a/c", "a/c/x/y"},
		{"a/b/x", "a/b", "a", "a/x"},
		{"a/x", "a", "", "x"},
		{"a", "a", "", ""},
		{"ab/x", "a", "z", "ab/x"},
	}
	for _, tt := range tests {
		if got := Reprefix(tt.path, tt.from, tt.to); got != tt.want {
			t.Errorf("Reprefix(%q, %q, %q) = %q, want %q", tt.path, tt.from, tt.to, got, tt.want)
		}
	}
}
