package tools

import (
	"context"
	"fmt"
)

func (e *Executor) generateCodeDiff(_ context.Context, args map[string]any, _ string) (Result, error) {
	return computeDiff(stringArg(args, "old_code"), stringArg(args, "new_code")), nil
}

func (e *Executor) readFile(_ context.Context, args map[string]any, workingDir string) (Result, error) {
	content, err := e.store.Read(stringArg(args, "path"), workingDir)
	if err != nil {
		return nil, err
	}
	return FileContentResult{Content: content}, nil
}

func (e *Executor) writeFile(_ context.Context, args map[string]any, workingDir string) (Result, error) {
	path := stringArg(args, "file_path")
	if err := e.store.Write(path, stringArg(args, "content"), workingDir); err != nil {
		return nil, err
	}
	return WriteResult{
		Success: true,
		Message: fmt.Sprintf("wrote %s", path),
	}, nil
}

func (e *Executor) listDirectory(_ context.Context, _ map[string]any, workingDir string) (Result, error) {
	tree, err := e.store.Tree(workingDir)
	if err != nil {
		return nil, err
	}
	return TreeResult{Tree: tree}, nil
}
