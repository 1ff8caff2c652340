package main

import (
	"errors"
	"fmt"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/itsharshx/niftypool/internal/license"
)

func licenseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "license",
		Short: "Manage the product license",
	}
	cmd.AddCommand(licenseActivateCmd(), licenseStatusCmd())
	return cmd
}

func licenseActivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "activate <key>",
		Short: "Activate a license key on this machine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			if settings.LicenseServer == "" {
				return errors.New("no license_server configured in niftypool.yaml")
			}

			client := license.NewClient(settings.LicenseServer)
			activation, err := client.Activate(cmd.Context(), args[0], license.HardwareID())
			if err != nil {
				return err
			}
			if !activation.Active() {
				return fmt.Errorf("activation failed: %s", activation.Message)
			}
			color.Greenln(activation.Message)
			return nil
		},
	}
}

func licenseStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <key>",
		Short: "Check license validity for this machine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			if settings.LicenseServer == "" {
				return errors.New("no license_server configured in niftypool.yaml")
			}

			client := license.NewClient(settings.LicenseServer)
			v, err := client.Validate(cmd.Context(), args[0], license.HardwareID())
			if err != nil {
				return err
			}
			if !v.Valid {
				return fmt.Errorf("license invalid: %s", v.Message)
			}

			color.Greenln("License valid:", v.Message)
			if v.LicenseType != "" {
				fmt.Println("  type:      ", v.LicenseType)
			}
			if v.ExpirationDate != "" {
				fmt.Println("  expires on:", v.ExpirationDate)
			}
			return nil
		},
	}
}
