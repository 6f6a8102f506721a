package utils_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/gdexport/gdexport/pkg/utils"
)

func TestIsGlobPattern(t *testing.T) {
	tests := []struct {
		pattern string
		want    bool
	}{
		{"libs/physics.dll", false},
		{"libs/*.dll", true},
		{"libs/**/*.so", true},
		{"libs/lib?.so", true},
		{"libs/{a,b}.so", true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			if got := utils.IsGlobPattern(tt.pattern); got != tt.want {
				t.Errorf("IsGlobPattern(%q) = %v, want %v", tt.pattern, got, tt.want)
			}
		})
	}
}

func TestExpandPattern(t *testing.T) {
	root := t.TempDir()
	files := []string{
		"Extensions/Physics/box2d.dll",
		"Extensions/Physics/deep/helper.dll",
		"Extensions/Physics/readme.txt",
		"Extensions/Other/other.dll",
	}
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(f), 0644); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name    string
		pattern string
		want    []string
	}{
		{
			name:    "plain path returned unchanged",
			pattern: "Extensions/Physics/box2d.dll",
			want:    []string{"Extensions/Physics/box2d.dll"},
		},
		{
			name:    "single level wildcard",
			pattern: "Extensions/Physics/*.dll",
			want:    []string{"Extensions/Physics/box2d.dll"},
		},
		{
			name:    "recursive wildcard",
			pattern: "Extensions/**/*.dll",
			want: []string{
				"Extensions/Other/other.dll",
				"Extensions/Physics/box2d.dll",
				"Extensions/Physics/deep/helper.dll",
			},
		},
		{
			name:    "no match",
			pattern: "Extensions/**/*.so",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := utils.ExpandPattern(root, tt.pattern)
			if err != nil {
				t.Fatalf("ExpandPattern() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExpandPattern() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExpandPattern_BadPattern(t *testing.T) {
	if _, err := utils.ExpandPattern(t.TempDir(), "Extensions/[*.dll"); err == nil {
		t.Error("expected error for malformed pattern")
	}
}
