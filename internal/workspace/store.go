package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// TreeNode represents a file or directory in a recursive listing.
type TreeNode struct {
	Name     string     `json:"name"`
	Type     string     `json:"type"`
	Children []TreeNode `json:"children,omitempty"`
}

// Store provides file operations rooted at a working directory. Every
// operation accepts an optional working directory override; when empty the
// configured default root is used.
type Store struct {
	defaultRoot string
}

// NewStore creates a Store with the given default root directory.
func NewStore(defaultRoot string) *Store {
	return &Store{defaultRoot: defaultRoot}
}

// DefaultRoot returns the configured default root.
func (s *Store) DefaultRoot() string {
	return s.defaultRoot
}

func (s *Store) resolveBase(workingDir string) (string, error) {
	base := strings.TrimSpace(workingDir)
	if base == "" {
		base = s.defaultRoot
	}
	if base == "" {
		return "", fmt.Errorf("a working directory must be specified")
	}
	info, err := os.Stat(base)
	if err != nil {
		return "", fmt.Errorf("invalid working directory %s: %w", base, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("working directory %s is not a directory", base)
	}
	return base, nil
}

// Read reads the content of a file within the working directory.
func (s *Store) Read(path, workingDir string) (string, error) {
	base, err := s.resolveBase(workingDir)
	if err != nil {
		return "", err
	}
	fullPath, err := ResolvePath(base, path)
	if err != nil {
		return "", err
	}

	content, err := os.ReadFile(fullPath)
	if err != nil {
		return "", err
	}

	return string(content), nil
}

// Write writes content to a file within the working directory.
// It creates parent directories if they don't exist.
func (s *Store) Write(path, content, workingDir string) error {
	base, err := s.resolveBase(workingDir)
	if err != nil {
		return err
	}
	fullPath, err := ResolvePath(base, path)
	if err != nil {
		return err
	}

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(fullPath, []byte(content), 0644)
}

// Exists checks whether a file exists within the working directory.
func (s *Store) Exists(path, workingDir string) (bool, error) {
	base, err := s.resolveBase(workingDir)
	if err != nil {
		return false, err
	}
	fullPath, err := ResolvePath(base, path)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(fullPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Tree returns a recursive listing of the working directory, filtered
// through the ignore rules. Entries are sorted case-insensitively with
// files before directories at each level.
func (s *Store) Tree(workingDir string) ([]TreeNode, error) {
	base, err := s.resolveBase(workingDir)
	if err != nil {
		return nil, err
	}
	return listTree(base)
}

func listTree(dir string) ([]TreeNode, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	files := make([]TreeNode, 0)
	dirs := make([]TreeNode, 0)
	for _, entry := range entries {
		name := entry.Name()
		if isIgnored(name) {
			continue
		}

		if entry.IsDir() {
			// Errors below the top level skip the subtree rather than
			// failing the whole listing.
			children, err := listTree(filepath.Join(dir, name))
			if err != nil {
				children = []TreeNode{}
			}
			if children == nil {
				children = []TreeNode{}
			}
			dirs = append(dirs, TreeNode{Name: name, Type: "directory", Children: children})
		} else {
			files = append(files, TreeNode{Name: name, Type: "file"})
		}
	}

	sortFunc := func(nodes []TreeNode) {
		sort.Slice(nodes, func(i, j int) bool {
			return strings.ToLower(nodes[i].Name) < strings.ToLower(nodes[j].Name)
		})
	}
	sortFunc(files)
	sortFunc(dirs)

	return append(files, dirs...), nil
}

// isIgnored filters out entries that never belong in a project tree view.
func isIgnored(name string) bool {
	if strings.HasPrefix(name, ".") && name != ".env" {
		return true
	}
	switch name {
	case "node_modules", "__pycache__", "dist", "build", "coverage":
		return true
	}
	for _, suffix := range []string{".log", ".tmp", ".temp"} {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}
