package release

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func planOptions(t *testing.T) Options {
	t.Helper()
	dir := t.TempDir()
	return Options{
		ImageName: "husky-musher",
		Version:   "2026.3",
		Stage:     "eval",
		EnvFile:   writeInput(t, dir, "prod.env", "REDCAP_API_URL=https://redcap.iths.org/api/\n"),
		Inputs: []string{
			writeInput(t, dir, "Dockerfile", "FROM golang:1.24\n"),
			writeInput(t, dir, "go.mod", "module example.com/m\n"),
		},
	}
}

func TestNewPlan(t *testing.T) {
	now := time.Date(2026, 8, 23, 17, 4, 5, 0, time.UTC)

	plan, err := NewPlan(planOptions(t), now)
	require.NoError(t, err)

	assert.Equal(t, "husky-musher:deps-"+plan.Fingerprint[:12], plan.DepsTag)
	assert.Equal(t, "husky-musher:2026.3", plan.AppTag)
	assert.Contains(t, plan.DeployTag, "deploy-eval.")
	assert.Equal(t, "https://redcap.iths.org/api/", plan.Env["REDCAP_API_URL"])

	commands := plan.Commands()
	require.Len(t, commands, 4)
	assert.Equal(t, "docker pull "+plan.DepsTag, commands[0])
	assert.Contains(t, commands[1], "--target dependencies")
	assert.Contains(t, commands[2], "--tag husky-musher:2026.3")
	assert.Contains(t, commands[3], "--tag "+plan.DeployTag)

	// Only the cache pull may fail.
	assert.True(t, plan.Steps[0].AllowFailure)
	for _, step := range plan.Steps[1:] {
		assert.False(t, step.AllowFailure, step.String())
	}
}

func TestNewPlan_MissingEnvFile(t *testing.T) {
	opts := planOptions(t)
	opts.EnvFile = filepath.Join(t.TempDir(), "missing.env")

	_, err := NewPlan(opts, time.Now())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.env")
}

func TestNewPlan_MissingBuildInput(t *testing.T) {
	opts := planOptions(t)
	opts.Inputs = append(opts.Inputs, filepath.Join(t.TempDir(), "go.sum"))

	_, err := NewPlan(opts, time.Now())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "go.sum")
}

func TestNewPlan_RequiredFields(t *testing.T) {
	for _, tt := range []struct {
		name   string
		mutate func(*Options)
	}{
		{"image name", func(o *Options) { o.ImageName = "" }},
		{"version", func(o *Options) { o.Version = "" }},
		{"stage", func(o *Options) { o.Stage = "" }},
	} {
		t.Run(tt.name, func(t *testing.T) {
			opts := planOptions(t)
			tt.mutate(&opts)
			_, err := NewPlan(opts, time.Now())
			assert.Error(t, err)
		})
	}
}

func TestNewPlan_DebugProgress(t *testing.T) {
	opts := planOptions(t)
	opts.Debug = true

	plan, err := NewPlan(opts, time.Now())
	require.NoError(t, err)

	for _, command := range plan.Commands()[1:] {
		assert.Contains(t, command, "--progress=plain")
	}
}

func TestNewPlan_DefaultInputsResolveInWorkdir(t *testing.T) {
	// Default inputs are relative paths; a plan computed outside the
	// repository root must fail rather than fingerprint nothing.
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	opts := planOptions(t)
	opts.Inputs = nil

	_, err = NewPlan(opts, time.Now())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "Dockerfile") ||
		strings.Contains(err.Error(), "go.mod"))
}
