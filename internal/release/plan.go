package release

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

// Options configures a build plan.
type Options struct {
	// ImageName is the repository part of every tag, e.g.
	// "ghcr.io/seattleflu/husky-musher".
	ImageName string
	// Version tags the application image.
	Version string
	// Stage tags the deployment image (dev, eval, prod).
	Stage string
	// EnvFile holds the stage's runtime environment. Validated at plan
	// time, before any docker command runs; supplied to the container at
	// run time rather than baked into a layer.
	EnvFile string
	// Inputs are the files fingerprinted for the dependency image.
	// Defaults to DefaultInputs.
	Inputs []string
	// Debug adds --progress=plain to the build commands.
	Debug bool
}

// Step is a single docker invocation. Pulling the cached dependency image
// is allowed to fail; the subsequent build then rebuilds it from scratch.
type Step struct {
	Args         []string
	AllowFailure bool
}

func (s Step) String() string {
	return "docker " + strings.Join(s.Args, " ")
}

// Plan is the ordered set of docker commands for one release. It is
// computed up front so a dry run can print exactly what would execute.
type Plan struct {
	Fingerprint string
	DepsTag     string
	AppTag      string
	DeployTag   string
	Env         map[string]string
	Steps       []Step
}

// NewPlan validates the inputs and lays out the docker commands for a
// release. The env file and the fingerprint inputs are read here, so a
// missing file fails the plan before anything touches docker.
func NewPlan(opts Options, now time.Time) (*Plan, error) {
	if opts.ImageName == "" {
		return nil, fmt.Errorf("image name is required")
	}
	if opts.Version == "" {
		return nil, fmt.Errorf("version is required")
	}
	if opts.Stage == "" {
		return nil, fmt.Errorf("deployment stage is required")
	}

	env, err := ParseEnvFile(opts.EnvFile)
	if err != nil {
		return nil, err
	}

	inputs := opts.Inputs
	if len(inputs) == 0 {
		inputs = DefaultInputs
	}
	fingerprint, err := Fingerprint(inputs)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Fingerprint: fingerprint,
		DepsTag:     DepsTag(opts.ImageName, fingerprint),
		AppTag:      AppTag(opts.ImageName, opts.Version),
		DeployTag:   DeployTag(opts.ImageName, opts.Stage, now),
		Env:         env,
	}

	progress := ""
	if opts.Debug {
		progress = "--progress=plain"
	}

	plan.Steps = []Step{
		{Args: []string{"pull", plan.DepsTag}, AllowFailure: true},
		{Args: buildArgs(progress,
			"build", "--target", "dependencies",
			"--cache-from", plan.DepsTag,
			"--tag", plan.DepsTag,
			".")},
		{Args: buildArgs(progress,
			"build", "--target", "app",
			"--cache-from", plan.DepsTag,
			"--build-arg", "APP_VERSION="+opts.Version,
			"--tag", plan.AppTag,
			".")},
		{Args: buildArgs(progress,
			"build", "--target", "deployment",
			"--build-arg", "APP_IMAGE="+plan.AppTag,
			"--build-arg", "DEPLOYMENT_STAGE="+opts.Stage,
			"--tag", plan.DeployTag,
			".")},
	}
	return plan, nil
}

func buildArgs(progress string, args ...string) []string {
	if progress == "" {
		return args
	}
	return append([]string{args[0], progress}, args[1:]...)
}

// Commands returns the printable command lines, for dry runs.
func (p *Plan) Commands() []string {
	lines := make([]string, len(p.Steps))
	for i, step := range p.Steps {
		lines[i] = step.String()
	}
	return lines
}

// Execute runs the plan's docker commands in order. Steps marked
// AllowFailure log through stderr and continue; any other failure aborts.
func (p *Plan) Execute(ctx context.Context, stdout, stderr io.Writer) error {
	for _, step := range p.Steps {
		cmd := exec.CommandContext(ctx, "docker", step.Args...)
		cmd.Stdout = stdout
		cmd.Stderr = stderr
		if err := cmd.Run(); err != nil {
			if step.AllowFailure {
				fmt.Fprintf(stderr, "%s failed (%v), continuing\n", step, err)
				continue
			}
			return fmt.Errorf("%s: %w", step, err)
		}
	}
	return nil
}
