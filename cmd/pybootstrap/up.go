package main

import (
	"fmt"

	"github.com/richinsley/pybootstrap"
	"github.com/spf13/cobra"
)

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Run the full bootstrap sequence",
	Long: `Runs the setup sequence for the project:

1. Locate the base Python interpreter and check its version
2. Create the virtual environment if absent (repairing incomplete ones)
3. Resolve the venv's python/pip paths and versions
4. Upgrade pip
5. Install the requirements file
6. Install the project in editable mode with the extras group
7. Import the configured packages inside the venv as a smoke test
8. Record a receipt so unchanged requirements are skipped next time

The sequence stops at the first failing step.`,
	RunE: runUp,
}

var (
	upVenv         string
	upRequirements string
	upExtras       string
	upPython       string
	upInterpreter  string
	upIndexURL     string
	upVerify       []string
	upForce        bool
	upSkipVerify   bool
	upNoCache      bool
)

func init() {
	upCmd.Flags().StringVar(&upVenv, "venv", "", "virtual environment directory (default from manifest or \"venv\")")
	upCmd.Flags().StringVar(&upRequirements, "requirements", "", "requirements file (default \"requirements.txt\")")
	upCmd.Flags().StringVar(&upExtras, "extras", "", "extras group for the editable install (default \"dev\")")
	upCmd.Flags().StringVar(&upPython, "python", "", "minimum Python version (default \"3.8\")")
	upCmd.Flags().StringVar(&upInterpreter, "interpreter", "", "base Python executable (default: discovered on the host)")
	upCmd.Flags().StringVar(&upIndexURL, "index-url", "", "custom package index URL")
	upCmd.Flags().StringSliceVar(&upVerify, "verify", nil, "packages the verification probe must import")
	upCmd.Flags().BoolVar(&upForce, "force", false, "rerun install steps even if requirements are unchanged")
	upCmd.Flags().BoolVar(&upSkipVerify, "skip-verify", false, "skip the verification probe")
	upCmd.Flags().BoolVar(&upNoCache, "no-cache", false, "disable pip's cache")
	rootCmd.AddCommand(upCmd)
}

func runUp(cmd *cobra.Command, args []string) error {
	opts, err := pybootstrap.LoadOptions(projectDir(cmd))
	if err != nil {
		return err
	}

	// Flags beat manifest and environment.
	if cmd.Flags().Changed("venv") {
		opts.VenvDir = upVenv
	}
	if cmd.Flags().Changed("requirements") {
		opts.RequirementsFile = upRequirements
	}
	if cmd.Flags().Changed("extras") {
		opts.Extras = upExtras
	}
	if cmd.Flags().Changed("python") {
		opts.MinPythonVersion = upPython
	}
	if cmd.Flags().Changed("interpreter") {
		opts.Interpreter = upInterpreter
	}
	if cmd.Flags().Changed("index-url") {
		opts.IndexURL = upIndexURL
	}
	if cmd.Flags().Changed("verify") {
		opts.VerifyImports = upVerify
	}
	opts.Force = upForce
	opts.SkipVerify = upSkipVerify
	if upNoCache {
		opts.NoCache = true
	}

	b := pybootstrap.New(opts)
	b.OnStepStart = stepHeader

	result, runErr := b.Run()

	for _, step := range result.Steps {
		switch step.Status {
		case pybootstrap.StepOK:
			if step.Detail != "" {
				fmt.Printf("    %s %s\n", okText("✓"), step.Detail)
			}
		case pybootstrap.StepSkipped:
			detail := step.Detail
			if detail == "" {
				detail = "skipped"
			}
			fmt.Printf("    %s %s\n", dimText("-"), dimText(detail))
		case pybootstrap.StepFailed:
			fmt.Printf("    %s %v\n", failText("✗"), step.Err)
		}
	}

	if runErr != nil {
		return runErr
	}

	for _, report := range result.Verified {
		fmt.Printf("%s %s %s\n", okText("verified"), report.Package, report.Version)
	}
	fmt.Println()
	fmt.Print(pybootstrap.NextSteps(result.Env))
	return nil
}
