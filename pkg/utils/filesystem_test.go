package utils_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/gdexport/gdexport/pkg/utils"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.png")
	dst := filepath.Join(dir, "nested", "dst.png")
	writeFile(t, src, "pixels")

	if err := utils.CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile() error = %v", err)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "pixels" {
		t.Errorf("copied content = %q", data)
	}
}

func TestCopyFile_OntoItself(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "unit.ir")
	writeFile(t, src, "code")

	if err := utils.CopyFile(src, filepath.Join(dir, ".", "unit.ir")); err != nil {
		t.Fatalf("CopyFile() onto itself error = %v", err)
	}

	data, _ := os.ReadFile(src)
	if string(data) != "code" {
		t.Errorf("file content altered: %q", data)
	}
}

func TestCopyFile_MissingSource(t *testing.T) {
	dir := t.TempDir()
	if err := utils.CopyFile(filepath.Join(dir, "missing"), filepath.Join(dir, "dst")); err == nil {
		t.Error("expected error for missing source")
	}
}

func TestConcatenate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a"), "stub-")
	writeFile(t, filepath.Join(dir, "b"), "config-")
	writeFile(t, filepath.Join(dir, "c"), "archive")

	out := filepath.Join(dir, "out", "game.exe")
	err := utils.Concatenate(out, filepath.Join(dir, "a"), filepath.Join(dir, "b"), filepath.Join(dir, "c"))
	if err != nil {
		t.Fatalf("Concatenate() error = %v", err)
	}

	data, _ := os.ReadFile(out)
	if string(data) != "stub-config-archive" {
		t.Errorf("Concatenate() wrote %q", data)
	}
}

func TestConcatenate_MissingPart(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a"), "stub")

	err := utils.Concatenate(filepath.Join(dir, "out"), filepath.Join(dir, "a"), filepath.Join(dir, "missing"))
	if err == nil {
		t.Error("expected error when a part is missing")
	}
}

func TestClearDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "staging")

	if errs := utils.ClearDirectory(dir); len(errs) != 0 {
		t.Fatalf("ClearDirectory() on missing dir errors = %v", errs)
	}
	if !utils.DirectoryExists(dir) {
		t.Fatal("expected directory to be created")
	}

	writeFile(t, filepath.Join(dir, "old.ir"), "x")
	writeFile(t, filepath.Join(dir, "sub", "old.dll"), "y")

	if errs := utils.ClearDirectory(dir); len(errs) != 0 {
		t.Fatalf("ClearDirectory() errors = %v", errs)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected empty directory, found %d entries", len(entries))
	}
}

func TestListAndWalkFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.dat"), "b")
	writeFile(t, filepath.Join(dir, "a.png"), "a")
	writeFile(t, filepath.Join(dir, "libs", "c.so"), "c")

	top, err := utils.ListFiles(dir)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"a.png", "b.dat"}; !reflect.DeepEqual(top, want) {
		t.Errorf("ListFiles() = %v, want %v", top, want)
	}

	all, err := utils.WalkFiles(dir)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"a.png", "b.dat", "libs/c.so"}; !reflect.DeepEqual(all, want) {
		t.Errorf("WalkFiles() = %v, want %v", all, want)
	}
}

func TestIsDirWritable(t *testing.T) {
	dir := t.TempDir()
	if !utils.IsDirWritable(dir) {
		t.Error("expected temp dir to be writable")
	}
	if utils.IsDirWritable(filepath.Join(dir, "missing")) {
		t.Error("missing directory must not be writable")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}
	for _, tt := range tests {
		if got := utils.FormatBytes(tt.in); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
