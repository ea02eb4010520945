package main

import (
	"fmt"
	"sort"

	"github.com/richinsley/pybootstrap"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the project's environment",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	opts, err := pybootstrap.LoadOptions(projectDir(cmd))
	if err != nil {
		return err
	}

	env, err := pybootstrap.VenvEnvironment(opts.VenvPath())
	if err != nil {
		fmt.Printf("venv: %s\n", failText("not set up"))
		fmt.Printf("  %v\n", err)
		fmt.Println(dimText("run \"pybootstrap up\" to create it"))
		return nil
	}

	fmt.Printf("venv:   %s\n", env.Root)
	fmt.Printf("python: %s (%s)\n", env.PythonVersion.String(), env.PythonPath)
	fmt.Printf("pip:    %s (%s)\n", env.PipVersion.String(), env.PipPath)

	receipt, err := pybootstrap.ReadReceipt(env.Root)
	if err != nil {
		fmt.Printf("receipt: %s\n", dimText("none (no completed bootstrap recorded)"))
		return nil
	}

	fmt.Printf("last bootstrap: %s\n", receipt.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Printf("  extras: %s\n", receipt.Extras)
	if len(receipt.Verified) > 0 {
		names := make([]string, 0, len(receipt.Verified))
		for name := range receipt.Verified {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %s %s\n", name, receipt.Verified[name])
		}
	}
	return nil
}
