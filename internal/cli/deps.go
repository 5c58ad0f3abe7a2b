package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasnoah/repoboost/internal/config"
	"github.com/lucasnoah/repoboost/internal/db"
	"github.com/lucasnoah/repoboost/internal/engine"
	"github.com/lucasnoah/repoboost/internal/state"
	"github.com/lucasnoah/repoboost/internal/vcs"
)

// resolveConfigPath turns the --config flag into an absolute path. An empty
// flag stays empty so the default search applies.
func resolveConfigPath(flag string) (string, error) {
	if flag == "" {
		return "", nil
	}
	abs, err := filepath.Abs(flag)
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	if _, err := os.Stat(abs); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("config file not found: %s", abs)
		}
		return "", fmt.Errorf("stat config file: %w", err)
	}
	return abs, nil
}

// loadConfig loads the run config for the repository at repoDir and resolves
// the state home directory.
func loadConfig(repoDir string) (*config.Config, string, error) {
	path, err := resolveConfigPath(configPath)
	if err != nil {
		return nil, "", err
	}

	var cfg *config.Config
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		// The home directory is needed to find <home>/config.yaml before the
		// config that may override it is loaded.
		searchHome, herr := config.Default().ResolveHome(homeDir)
		if herr != nil {
			return nil, "", herr
		}
		cfg, err = config.LoadDefault(repoDir, searchHome)
	}
	if err != nil {
		return nil, "", err
	}

	home, err := cfg.ResolveHome(homeDir)
	if err != nil {
		return nil, "", err
	}
	if cfg.TemplatesDir == "" {
		cfg.TemplatesDir = filepath.Join(home, "templates")
	}
	return cfg, home, nil
}

// checkConfig returns a single error listing every validation problem.
func checkConfig(cfg *config.Config) error {
	errs := config.Validate(cfg)
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	src := cfg.Source
	if src == "" {
		src = "defaults"
	}
	return fmt.Errorf("invalid config (%s):\n  - %s", src, strings.Join(msgs, "\n  - "))
}

// repoDir returns the absolute repository directory named by the first
// argument, or the working directory.
func repoDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", dir, err)
	}
	return abs, nil
}

func openDB(home string) (*db.DB, func(), error) {
	dbPath, err := db.DefaultDBPath(home)
	if err != nil {
		return nil, nil, err
	}
	d, err := db.Open(dbPath)
	if err != nil {
		return nil, nil, err
	}
	if err := d.Migrate(); err != nil {
		d.Close()
		return nil, nil, err
	}
	return d, func() { d.Close() }, nil
}

func newGateway(cfg *config.Config, dir string) *vcs.Gateway {
	return vcs.NewGateway(&vcs.ExecGit{}, dir, cfg.Author)
}

// projectFor resolves the identity of the repository at dir.
func projectFor(ctx context.Context, cfg *config.Config, dir string) (string, state.Identity, error) {
	return engine.ResolveProject(ctx, newGateway(cfg, dir))
}
