package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setupStore(t *testing.T) (*Store, string) {
	t.Helper()
	root := t.TempDir()
	return NewStore(root), root
}

func TestStoreReadWrite(t *testing.T) {
	store, root := setupStore(t)

	if err := store.Write("src/main.go", "package main\n", ""); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	// Parent directories are created on demand.
	if _, err := os.Stat(filepath.Join(root, "src")); err != nil {
		t.Fatalf("parent directory not created: %v", err)
	}

	content, err := store.Read("src/main.go", "")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if content != "package main\n" {
		t.Errorf("content = %q, want %q", content, "package main\n")
	}
}

func TestStoreReadMissingFile(t *testing.T) {
	store, _ := setupStore(t)

	_, err := store.Read("nope.txt", "")
	if !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestStoreRejectsTraversal(t *testing.T) {
	store, _ := setupStore(t)

	if _, err := store.Read("../outside.txt", ""); err != ErrPathEscape {
		t.Errorf("Read traversal: got %v, want %v", err, ErrPathEscape)
	}
	if err := store.Write("../outside.txt", "x", ""); err != ErrPathEscape {
		t.Errorf("Write traversal: got %v, want %v", err, ErrPathEscape)
	}
}

func TestStoreWorkingDirectoryOverride(t *testing.T) {
	store, _ := setupStore(t)
	other := t.TempDir()

	if err := store.Write("note.md", "hello", other); err != nil {
		t.Fatalf("Write with override failed: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(other, "note.md"))
	if err != nil {
		t.Fatalf("file not written under override dir: %v", err)
	}
	if string(content) != "hello" {
		t.Errorf("content = %q, want %q", content, "hello")
	}
}

func TestStoreInvalidWorkingDirectory(t *testing.T) {
	store, root := setupStore(t)

	_, err := store.Read("file.txt", filepath.Join(root, "does-not-exist"))
	if err == nil || !strings.Contains(err.Error(), "invalid working directory") {
		t.Errorf("expected invalid working directory error, got %v", err)
	}
}

func TestStoreTree(t *testing.T) {
	store, root := setupStore(t)

	mustWrite := func(path, content string) {
		t.Helper()
		full := filepath.Join(root, path)
		os.MkdirAll(filepath.Dir(full), 0755)
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	mustWrite("readme.md", "# hi")
	mustWrite("src/main.go", "package main")
	mustWrite("src/util.go", "package main")
	mustWrite(".git/config", "hidden")
	mustWrite("node_modules/pkg/index.js", "ignored")
	mustWrite("debug.log", "ignored")

	tree, err := store.Tree("")
	if err != nil {
		t.Fatalf("Tree failed: %v", err)
	}

	names := make(map[string]TreeNode)
	for _, node := range tree {
		names[node.Name] = node
	}

	if _, ok := names["readme.md"]; !ok {
		t.Error("tree missing readme.md")
	}
	src, ok := names["src"]
	if !ok {
		t.Fatal("tree missing src directory")
	}
	if src.Type != "directory" || len(src.Children) != 2 {
		t.Errorf("src = %#v, want directory with 2 children", src)
	}

	for _, ignored := range []string{".git", "node_modules", "debug.log"} {
		if _, ok := names[ignored]; ok {
			t.Errorf("tree should not contain %q", ignored)
		}
	}

	// Files sort before directories.
	if tree[len(tree)-1].Name != "src" {
		t.Errorf("directories should sort after files: %#v", tree)
	}
}
