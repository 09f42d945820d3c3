package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "smoothied",
		Short: "A driver and HTTP bridge for Smoothieware-class CNC/laser controllers",
	}

	root.AddCommand(serveCommand())
	root.AddCommand(macroCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
