package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pybootstrap",
	Short: "Set up a Python project's development environment",
	Long: `Pybootstrap prepares a Python project for development: it locates a base
interpreter, creates (or repairs) a virtual environment, upgrades pip,
installs the declared requirements, installs the project itself in editable
mode with an extras group, and verifies the result by importing the
configured packages inside the environment.

The environment is never "activated"; every tool is invoked through its
explicit path inside the venv, so the calling shell is left untouched.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, failText(err.Error()))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("dir", "d", ".", "Python project directory")
}

// projectDir resolves the --dir persistent flag.
func projectDir(cmd *cobra.Command) string {
	dir, err := cmd.Flags().GetString("dir")
	if err != nil || dir == "" {
		return "."
	}
	return dir
}
