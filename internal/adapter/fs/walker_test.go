package fs

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, f)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(f), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestWalkIncludeExclude(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.txt", "sub/b.txt", "sub/c.pdf", "drafts/d.txt")

	w := NewWalker([]string{"**/*.txt"}, []string{"drafts/**"})
	files, err := w.Walk(root)
	if err != nil {
		t.Fatal(err)
	}

	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d: %v", len(files), files)
	}
	if filepath.Base(files[0].Path) != "a.txt" || filepath.Base(files[1].Path) != "b.txt" {
		t.Errorf("unexpected files %v", files)
	}
}

func TestResolve(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "data.txt", "ratio/2023.txt", "ratio/2024.txt", "ratio/notes.md")
	w := NewWalker(nil, nil)

	t.Run("single file", func(t *testing.T) {
		paths, err := w.Resolve(filepath.Join(root, "data.txt"))
		if err != nil {
			t.Fatal(err)
		}
		if len(paths) != 1 {
			t.Errorf("expected 1 path, got %v", paths)
		}
	})

	t.Run("directory", func(t *testing.T) {
		paths, err := w.Resolve(filepath.Join(root, "ratio"))
		if err != nil {
			t.Fatal(err)
		}
		if len(paths) != 3 {
			t.Errorf("expected 3 paths, got %v", paths)
		}
	})

	t.Run("glob", func(t *testing.T) {
		paths, err := w.Resolve(filepath.Join(root, "ratio", "*.txt"))
		if err != nil {
			t.Fatal(err)
		}
		if len(paths) != 2 {
			t.Fatalf("expected 2 paths, got %v", paths)
		}
		if filepath.Base(paths[0]) != "2023.txt" {
			t.Errorf("expected sorted paths, got %v", paths)
		}
	})

	t.Run("missing", func(t *testing.T) {
		if _, err := w.Resolve(filepath.Join(root, "nope.txt")); err == nil {
			t.Error("expected error for missing file")
		}
		if _, err := w.Resolve(filepath.Join(root, "nope", "*.txt")); err == nil {
			t.Error("expected error for glob without matches")
		}
	})
}
