package main

import (
	"fmt"

	"github.com/richinsley/pybootstrap"
	"github.com/spf13/cobra"
)

var freezeOutput string

var freezeCmd = &cobra.Command{
	Use:   "freeze",
	Short: "Snapshot the environment's installed packages",
	Long: `Writes the environment's installed packages as requirements-style lines
("name==version"). Local editable installs are reduced to bare package names.`,
	RunE: runFreeze,
}

func init() {
	freezeCmd.Flags().StringVarP(&freezeOutput, "output", "o", "", "write to file instead of stdout")
	rootCmd.AddCommand(freezeCmd)
}

func runFreeze(cmd *cobra.Command, args []string) error {
	opts, err := pybootstrap.LoadOptions(projectDir(cmd))
	if err != nil {
		return err
	}

	env, err := pybootstrap.VenvEnvironment(opts.VenvPath())
	if err != nil {
		return err
	}

	if freezeOutput != "" {
		if err := env.FreezeToFile(freezeOutput); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", freezeOutput)
		return nil
	}

	lines, err := env.Freeze()
	if err != nil {
		return err
	}
	for _, line := range lines {
		fmt.Println(line)
	}
	return nil
}
