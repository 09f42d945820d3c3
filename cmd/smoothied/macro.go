package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cncware/smoothied/internal/config"
	"github.com/cncware/smoothied/macro"
)

func macroCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "macro",
		Short: "Manage stored macros",
	}

	cmd.AddCommand(macroListCommand(), macroSetCommand(), macroDeleteCommand())
	return cmd
}

func openStore() (*macro.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return macro.Open(cfg.MacroFile)
}

func macroListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored macros",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			for _, m := range s.List() {
				fmt.Printf("%s\t%s\n", m.ID, m.Name)
			}
			return nil
		},
	}
}

func macroSetCommand() *cobra.Command {
	var name, content string
	cmd := &cobra.Command{
		Use:   "set <id>",
		Short: "Create or replace a macro",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			return s.Put(macro.Macro{ID: args[0], Name: name, Content: content})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&content, "content", "", "gcode content")
	return cmd
}

func macroDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a macro",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			return s.Delete(args[0])
		},
	}
}
