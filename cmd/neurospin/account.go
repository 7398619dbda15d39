package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/neurospin/internal/config"
	"github.com/san-kum/neurospin/internal/logging"
	"github.com/san-kum/neurospin/internal/update"
)

func newLicenseCmd() *cobra.Command {
	licenseCmd := &cobra.Command{
		Use:   "license",
		Short: "manage the license of this device",
	}

	activateCmd := &cobra.Command{
		Use:   "activate [key]",
		Short: "verify a license key and bind it to this device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			st, err := newStore(cfg)
			if err != nil {
				return err
			}
			log := logging.Console(cfg.LogLevel)
			res, err := newActivator(cfg, st, log).Activate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !res.Valid {
				return errors.New(res.Message)
			}
			fmt.Printf("%s: activated for %s\n", res.Message, res.Owner)
			if res.Expires != "" {
				fmt.Printf("expires: %s\n", res.Expires)
			}
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "show the activation state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			st, err := newStore(cfg)
			if err != nil {
				return err
			}
			status := newActivator(cfg, st, logging.Console(cfg.LogLevel)).Status()
			if !status.Active {
				fmt.Printf("inactive: %s\n", status.Reason)
				return nil
			}
			rec := status.Record
			fmt.Printf("active\nowner: %s\nkey: %s\ndevice: %s\nactivated: %s\n",
				rec.Owner, rec.Key, rec.DeviceID, rec.ActivationDate.Format("2006-01-02 15:04:05"))
			return nil
		},
	}

	deactivateCmd := &cobra.Command{
		Use:   "deactivate",
		Short: "remove the activation record from this device",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			st, err := newStore(cfg)
			if err != nil {
				return err
			}
			if err := newActivator(cfg, st, logging.Console(cfg.LogLevel)).Deactivate(); err != nil {
				return err
			}
			fmt.Println("license removed")
			return nil
		},
	}

	licenseCmd.AddCommand(activateCmd, statusCmd, deactivateCmd)
	return licenseCmd
}

func newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "check for a newer release",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log := logging.Console(cfg.LogLevel)
			info := update.NewChecker(cfg.Update.URL, cfg.Update.Timeout, log).Check(cmd.Context(), update.Version)
			if !info.HasUpdate {
				fmt.Printf("neurospin %s is up to date\n", update.Version)
				return nil
			}
			fmt.Printf("update available: %s -> %s\n", update.Version, info.LatestVersion)
			if info.Force {
				fmt.Println("this update is required")
			}
			if info.ReleaseNotes != "" {
				fmt.Printf("\n%s\n", info.ReleaseNotes)
			}
			if info.DownloadURL != "" {
				fmt.Printf("\ndownload: %s\n", info.DownloadURL)
			}
			return nil
		},
	}
}

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "manage the config file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write the default config",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configFile
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.Save(path, config.DefaultConfig()); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	configCmd.AddCommand(initCmd)
	return configCmd
}
