package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/4thel00z/gitwiki/internal"
)

func TestInitCmd(t *testing.T) {
	dir := t.TempDir()
	repo := filepath.Join(dir, "wiki")
	configPath := filepath.Join(dir, "conf", "wiki.conf")

	out, err := runCmd(t, "", "init", repo, "--config", configPath)
	if err != nil {
		t.Fatalf("init: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Initialized wiki") {
		t.Errorf("unexpected output: %s", out)
	}

	cfg, err := internal.LoadConfig(configPath)
	if err != nil {
		t.Fatalf("load written config: %v", err)
	}
	if cfg.Git.Repository != repo {
		t.Errorf("repository = %q, want %q", cfg.Git.Repository, repo)
	}

	if _, err := os.Stat(filepath.Join(repo, internal.DefaultPage)); err != nil {
		t.Errorf("expected first page in worktree: %v", err)
	}
}

func TestInitCmdExistingWiki(t *testing.T) {
	configPath, _ := setupWiki(t)

	if _, err := runCmd(t, "", "init", "--config", configPath); err != nil {
		t.Fatalf("first init: %v", err)
	}

	out, err := runCmd(t, "", "init", "--config", configPath)
	if err != nil {
		t.Fatalf("second init: %v", err)
	}
	if !strings.Contains(out, "already initialized") {
		t.Errorf("unexpected output: %s", out)
	}
}
