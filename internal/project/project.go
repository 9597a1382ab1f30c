// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 tdeploy Authors

// Package project resolves a deploy argument (a .wasm path or a template
// project name) to the template binary to publish. It never builds anything.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/tari-tools/tdeploy/internal/template"
)

// WasmTarget is the cargo target triple templates are built for.
const WasmTarget = "wasm32-unknown-unknown"

const manifestName = "Cargo.toml"

var (
	// ErrBinaryNotFound indicates the project exists but has not been built
	ErrBinaryNotFound = errors.New("template binary not found")

	// ErrProjectNotFound indicates no workspace member has the requested name
	ErrProjectNotFound = errors.New("project not found")
)

// manifest is the subset of Cargo.toml read here.
type manifest struct {
	Package *struct {
		Name string `toml:"name"`
	} `toml:"package"`
	Workspace *struct {
		Members []string `toml:"members"`
	} `toml:"workspace"`
}

// Resolved is a template binary located on disk.
type Resolved struct {
	Name string // project name, or the file name for direct paths
	Dir  string // project directory; empty for direct paths
	Path string
}

// Template returns the binary as a template.Path.
func (r *Resolved) Template() template.Template {
	return template.Path(r.Path)
}

// Resolve maps arg to a template binary. An existing file is used as is.
// Otherwise arg names a project: a member of the cargo workspace in folder
// (matched case-insensitively), or the package in folder itself.
func Resolve(folder, arg string) (*Resolved, error) {
	if arg == "" {
		return nil, fmt.Errorf("template path or project name is required")
	}
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		return &Resolved{Name: filepath.Base(arg), Path: arg}, nil
	}
	if strings.HasSuffix(arg, ".wasm") {
		return nil, fmt.Errorf("%w: %s", ErrBinaryNotFound, arg)
	}

	name, dir, err := findProject(folder, arg)
	if err != nil {
		return nil, err
	}

	candidates := []string{BinaryPath(folder, name)}
	if dir != folder {
		candidates = append(candidates, BinaryPath(dir, name))
	}
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return &Resolved{Name: name, Dir: dir, Path: path}, nil
		}
	}

	return nil, fmt.Errorf("%w for project %q at %s (build it with: cargo build --target=%s --release)",
		ErrBinaryNotFound, name, candidates[0], WasmTarget)
}

// BinaryPath is where cargo places the release wasm of package name under dir.
func BinaryPath(dir, name string) string {
	file := strings.ReplaceAll(name, "-", "_") + ".wasm"
	return filepath.Join(dir, "target", WasmTarget, "release", file)
}

// findProject looks arg up among the workspace members of folder. Without a
// manifest, arg is taken as the package name in folder.
func findProject(folder, arg string) (name, dir string, err error) {
	root, err := readManifest(filepath.Join(folder, manifestName))
	if errors.Is(err, os.ErrNotExist) {
		return arg, folder, nil
	}
	if err != nil {
		return "", "", err
	}

	if root.Workspace == nil {
		if root.Package != nil && strings.EqualFold(root.Package.Name, arg) {
			return root.Package.Name, folder, nil
		}
		return "", "", fmt.Errorf("%w: %q is not the package in %s", ErrProjectNotFound, arg, folder)
	}

	members, err := expandMembers(folder, root.Workspace.Members)
	if err != nil {
		return "", "", err
	}
	var known []string
	for _, memberDir := range members {
		m, err := readManifest(filepath.Join(memberDir, manifestName))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return "", "", err
		}
		if m.Package == nil {
			continue
		}
		if strings.EqualFold(m.Package.Name, arg) {
			return m.Package.Name, memberDir, nil
		}
		known = append(known, m.Package.Name)
	}

	sort.Strings(known)
	return "", "", fmt.Errorf("%w: %q (workspace members: %s)", ErrProjectNotFound, arg, strings.Join(known, ", "))
}

func expandMembers(folder string, members []string) ([]string, error) {
	var dirs []string
	for _, member := range members {
		matches, err := filepath.Glob(filepath.Join(folder, member))
		if err != nil {
			return nil, fmt.Errorf("invalid workspace member pattern %q: %w", member, err)
		}
		sort.Strings(matches)
		dirs = append(dirs, matches...)
	}
	return dirs, nil
}

func readManifest(path string) (*manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &m, nil
}
