package storage

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveDirs(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	dirs := ResolveDirs()

	if dirs.Config == "" {
		t.Error("Config dir should not be empty")
	}
	if !strings.Contains(dirs.Config, "codemod") {
		t.Errorf("Config dir should contain 'codemod': %s", dirs.Config)
	}
}

func TestResolveDirsXDGOverride(t *testing.T) {
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)

	dirs := ResolveDirs()

	if dirs.Config != filepath.Join(configHome, "codemod") {
		t.Errorf("XDG config override failed: got %s", dirs.Config)
	}
}

func TestResolveProjectDirs(t *testing.T) {
	projectRoot := "/test/project"
	dirs := ResolveProjectDirs(projectRoot)

	if dirs.Root != filepath.Join(projectRoot, ".codemod") {
		t.Errorf("Root: got %s", dirs.Root)
	}
	if dirs.Config != filepath.Join(projectRoot, ".codemod", "config.yaml") {
		t.Errorf("Config: got %s", dirs.Config)
	}
	if dirs.Local != filepath.Join(projectRoot, ".codemod", "local") {
		t.Errorf("Local: got %s", dirs.Local)
	}
}

func TestConfigDir(t *testing.T) {
	dirs := &Dirs{Config: "/cfg"}

	if got := dirs.ConfigDir("config.yaml"); got != filepath.Join("/cfg", "config.yaml") {
		t.Errorf("ConfigDir: got %s", got)
	}
}
