package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/femsim/internal/config"
	"github.com/spf13/cobra"
)

func sceneCommand(t *testing.T) *cobra.Command {
	t.Helper()
	configFile = ""
	cmd := &cobra.Command{Use: "test"}
	addSceneFlags(cmd)
	return cmd
}

func TestLoadConfigPresetAndOverrides(t *testing.T) {
	cmd := sceneCommand(t)
	if err := cmd.Flags().Set("dt", "1e-4"); err != nil {
		t.Fatal(err)
	}
	if err := cmd.Flags().Set("integrator", "rk4"); err != nil {
		t.Fatal(err)
	}

	cfg, opts, err := loadConfig(cmd, []string{"bounce"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "bounce" || cfg.Timestep != 1e-4 || cfg.Integrator != "rk4" {
		t.Errorf("cfg = %s dt=%g integ=%s", cfg.Name, cfg.Timestep, cfg.Integrator)
	}
	// not set on the command line, so the preset value survives
	if cfg.FloorPenalty != 40000 || cfg.Duration != config.GetPreset("bounce").Duration {
		t.Errorf("preset values overwritten: %+v", cfg)
	}
	if len(opts) != 0 {
		t.Errorf("preset should not set a base dir")
	}
}

func TestLoadConfigErrors(t *testing.T) {
	cmd := sceneCommand(t)
	if _, _, err := loadConfig(cmd, []string{"nope"}); err == nil {
		t.Error("unknown preset accepted")
	}

	if err := cmd.Flags().Set("dt", "-1"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := loadConfig(cmd, nil); err == nil {
		t.Error("negative timestep accepted")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.yaml")
	cfg := config.GetPreset("drop")
	cfg.Name = ""
	if err := config.Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	cmd := sceneCommand(t)
	configFile = path
	defer func() { configFile = "" }()

	got, opts, err := loadConfig(cmd, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "scene" || len(opts) != 1 {
		t.Errorf("name = %q, opts = %d", got.Name, len(opts))
	}
}

func TestMeshBoxCommand(t *testing.T) {
	outPath = filepath.Join(t.TempDir(), "box.mesh")
	meshSize = 0.5
	defer func() { outPath = "-" }()

	if err := meshBox(nil, []string{"2", "1", "1"}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(outPath); err != nil {
		t.Fatal(err)
	}
	if err := meshInfo(nil, []string{outPath}); err != nil {
		t.Fatal(err)
	}
	if err := meshBox(nil, []string{"2", "x", "1"}); err == nil {
		t.Error("bad resolution accepted")
	}
}

func TestNewLogger(t *testing.T) {
	defer func() { logLevel = "info" }()
	logLevel = "debug"
	if _, err := newLogger(os.Stderr); err != nil {
		t.Error(err)
	}
	logLevel = "loud"
	if _, err := newLogger(os.Stderr); err == nil {
		t.Error("bad level accepted")
	}
}
