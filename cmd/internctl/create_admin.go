package main

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/Internmain07/I-INTERN/internal/utilities"
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account",
	RunE:  createAdmin,
}

func init() {
	rootCmd.AddCommand(createAdminCmd)

	createAdminCmd.Flags().StringP("email", "e", "", "email of the new admin")
	createAdminCmd.Flags().StringP("password", "p", "", "password of the new admin, prompted when empty")
	_ = createAdminCmd.MarkFlagRequired("email")
}

func validatePassword(input string) error {
	if !utilities.IsStrongPassword(input) {
		return errors.New("needs 8+ characters with upper case, lower case and a digit")
	}
	return nil
}

func createAdmin(cmd *cobra.Command, _ []string) error {
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")

	if password == "" {
		prompt := promptui.Prompt{
			Label:    "Password",
			Mask:     '*',
			Validate: validatePassword,
		}
		var err error
		if password, err = prompt.Run(); err != nil {
			return fmt.Errorf("reading password: %w", err)
		}
	} else if err := validatePassword(password); err != nil {
		return err
	}

	db, _, _, err := connect()
	if err != nil {
		return err
	}
	defer db.Close()

	admin, err := utilities.CreateAdmin(email, password, db.DB)
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	fmt.Println("Admin created successfully!")
	fmt.Println("======================================")
	fmt.Printf("ID:    %s\n", admin.ID)
	fmt.Printf("Email: %s\n", admin.Email)
	fmt.Println("======================================")
	return nil
}
