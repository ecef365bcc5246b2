// Package storage resolves where codemod looks for configuration.
package storage

import (
	"os"
	"path/filepath"
)

const appName = "codemod"

// Dirs holds the per-user directories.
type Dirs struct {
	Config string
}

// ProjectDirs holds the directories under a project root.
type ProjectDirs struct {
	Root   string // .codemod/
	Config string // .codemod/config.yaml, committed
	Local  string // .codemod/local/, gitignored
}

// ResolveDirs honours XDG_CONFIG_HOME before the platform default.
func ResolveDirs() *Dirs {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return &Dirs{Config: filepath.Join(dir, appName)}
	}
	return &Dirs{Config: platformConfigDefault()}
}

func ResolveProjectDirs(projectRoot string) *ProjectDirs {
	root := filepath.Join(projectRoot, "."+appName)
	return &ProjectDirs{
		Root:   root,
		Config: filepath.Join(root, "config.yaml"),
		Local:  filepath.Join(root, "local"),
	}
}

// ConfigDir joins subpath onto the user config directory.
func (d *Dirs) ConfigDir(subpath ...string) string {
	return filepath.Join(append([]string{d.Config}, subpath...)...)
}
