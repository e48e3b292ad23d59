package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/truongnet3103/albion-GE/internal/service"

	"github.com/spf13/cobra"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage admin accounts",
}

var adminName string

var adminAddCmd = &cobra.Command{
	Use:   "add <username> <password>",
	Short: "Create an admin or reset its password",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openDB()
		if err != nil {
			return err
		}
		a, err := service.NewAuthService(db).UpsertAdmin(cmd.Context(), args[0], args[1], adminName)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "admin %s (%s) saved\n", a.Username, a.Name)
		return nil
	},
}

var licenseCmd = &cobra.Command{
	Use:   "license",
	Short: "Manage license keys for scan and commit",
}

var licenseOwner string

var licenseAddCmd = &cobra.Command{
	Use:   "add <key>",
	Short: "Add or re-activate a license key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openDB()
		if err != nil {
			return err
		}
		if err := service.NewLicenseService(db).Add(cmd.Context(), args[0], licenseOwner); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "license active")
		return nil
	},
}

var licenseRevokeCmd = &cobra.Command{
	Use:   "revoke <key>",
	Short: "Deactivate a license key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openDB()
		if err != nil {
			return err
		}
		if err := service.NewLicenseService(db).Revoke(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "license revoked")
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Change settings shared by all admins",
}

var setGeminiKeyCmd = &cobra.Command{
	Use:   "set-gemini-key <key>",
	Short: "Store the shared Gemini API key (empty string clears it)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := openDB()
		if err != nil {
			return err
		}
		if err := service.NewSettingsService(db, cfg.Roster.MonthlyTarget).SetSharedAPIKey(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "shared key saved")
		return nil
	},
}

var setTargetCmd = &cobra.Command{
	Use:   "set-target <n>",
	Short: "Set the monthly participation target",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("target must be a number: %w", err)
		}
		cfg, db, err := openDB()
		if err != nil {
			return err
		}
		if err := service.NewSettingsService(db, cfg.Roster.MonthlyTarget).SetMonthlyTarget(cmd.Context(), n); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "monthly target set to %d\n", n)
		return nil
	},
}

var wipeYes bool

var wipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Delete one page of rows from every roster table",
	Long: `Delete up to maintenance.wipe_page_size rows from events, attendance,
members and role history. Run it again until every count is 0.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !wipeYes {
			return fmt.Errorf("refusing to wipe without --yes")
		}
		cfg, db, err := openDB()
		if err != nil {
			return err
		}
		res, err := service.NewMaintenanceService(db, cfg.Maintenance.WipePageSize).Wipe(cmd.Context())
		if err != nil {
			return err
		}
		tables := make([]string, 0, len(res.Deleted))
		for t := range res.Deleted {
			tables = append(tables, t)
		}
		sort.Strings(tables)
		for _, t := range tables {
			fmt.Fprintf(cmd.OutOrStdout(), "%-22s %d\n", t, res.Deleted[t])
		}
		return nil
	},
}

func init() {
	adminAddCmd.Flags().StringVar(&adminName, "name", "", "display name (defaults to username)")
	adminCmd.AddCommand(adminAddCmd)

	licenseAddCmd.Flags().StringVar(&licenseOwner, "owner", "", "who the key was issued to")
	licenseCmd.AddCommand(licenseAddCmd, licenseRevokeCmd)

	configCmd.AddCommand(setGeminiKeyCmd, setTargetCmd)

	wipeCmd.Flags().BoolVar(&wipeYes, "yes", false, "confirm the wipe")
}
