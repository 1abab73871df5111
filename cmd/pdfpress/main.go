package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	cobra.EnableCommandSorting = false
	root := &cobra.Command{
		Use:           "pdfpress",
		Short:         "Compress PDF files with Ghostscript.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newCompressCommand())
	root.AddCommand(newSweepCommand())
	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
