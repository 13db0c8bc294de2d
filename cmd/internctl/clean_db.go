package main

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var cleanDBCmd = &cobra.Command{
	Use:   "clean-db",
	Short: "Drop every table of the service",
	Long:  "Drop every table of the service. This action is irreversible.",
	RunE:  cleanDB,
}

func init() {
	rootCmd.AddCommand(cleanDBCmd)

	cleanDBCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
}

func cleanDB(cmd *cobra.Command, _ []string) error {
	yes, _ := cmd.Flags().GetBool("yes")
	if !yes {
		prompt := promptui.Prompt{
			Label:     "This will DROP ALL TABLES of the service. Continue",
			IsConfirm: true,
		}
		if _, err := prompt.Run(); err != nil {
			if errors.Is(err, promptui.ErrAbort) {
				fmt.Println("Operation cancelled.")
				return nil
			}
			return err
		}
	}

	db, _, _, err := connect()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.DropAll(); err != nil {
		return fmt.Errorf("failed to drop tables: %w", err)
	}

	fmt.Println("All tables dropped successfully.")
	return nil
}
