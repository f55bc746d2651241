package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/seattleflu/husky-musher/internal/release"
)

var (
	releaseVersion string
	releaseEnvFile string
	releaseStage   string
	releaseDebug   bool
	releaseRun     bool
	releaseImage   string
)

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Build and tag the container images",
	Long: `Compute the container build plan: a cached dependency image keyed by a
content fingerprint of the build inputs, the application image tagged
with the version, and a deployment image tagged with the stage and a
timestamp.

By default the plan is printed without running anything. Pass --run to
execute the docker commands.

Examples:
  # Show what a release of version 2026.3 to eval would do
  musher release -v 2026.3 --env-file env.d/eval.env --deployment-stage eval

  # Actually build it
  musher release -v 2026.3 --env-file env.d/eval.env --deployment-stage eval --run`,
	RunE: runRelease,
}

func init() {
	releaseCmd.Flags().StringVarP(&releaseVersion, "version", "v", "", "version to tag the application image with (default: built-in version)")
	releaseCmd.Flags().StringVar(&releaseEnvFile, "env-file", "", "stage env file, validated at plan time and passed to the container at run time (required)")
	releaseCmd.Flags().StringVar(&releaseStage, "deployment-stage", "dev", "deployment stage (dev, eval, prod)")
	releaseCmd.Flags().BoolVarP(&releaseDebug, "debug", "g", false, "plain docker build output")
	releaseCmd.Flags().BoolVar(&releaseRun, "run", false, "execute the docker commands instead of printing them")
	releaseCmd.Flags().StringVar(&releaseImage, "image", "husky-musher", "image repository for all tags")
	_ = releaseCmd.MarkFlagRequired("env-file")
}

func runRelease(cmd *cobra.Command, args []string) error {
	version := releaseVersion
	if version == "" {
		version = Version
	}

	plan, err := release.NewPlan(release.Options{
		ImageName: releaseImage,
		Version:   version,
		Stage:     releaseStage,
		EnvFile:   releaseEnvFile,
		Debug:     releaseDebug,
	}, time.Now())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "fingerprint: %s\n", plan.Fingerprint)
	fmt.Fprintf(out, "deps image:  %s\n", plan.DepsTag)
	fmt.Fprintf(out, "app image:   %s\n", plan.AppTag)
	fmt.Fprintf(out, "deploy tag:  %s\n", plan.DeployTag)

	if !releaseRun {
		fmt.Fprintln(out)
		for _, command := range plan.Commands() {
			fmt.Fprintln(out, command)
		}
		fmt.Fprintln(out, "\n(dry run; pass --run to execute)")
		return nil
	}

	return plan.Execute(cmd.Context(), out, cmd.ErrOrStderr())
}
