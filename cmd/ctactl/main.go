// Command ctactl is the operator tool for the roster service: admin accounts,
// license keys, shared settings and the paged wipe.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/truongnet3103/albion-GE/internal/config"
	"github.com/truongnet3103/albion-GE/internal/logger"
	"github.com/truongnet3103/albion-GE/internal/model"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:           "ctactl",
	Short:         "Manage the CTA roster service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (e.g. etc/config.yaml)")
	rootCmd.AddCommand(adminCmd, licenseCmd, configCmd, wipeCmd)
}

// openDB loads config the same way the server does and migrates the schema,
// so ctactl can run against an empty database.
func openDB() (*config.Config, *gorm.DB, error) {
	cfg := config.Load(configFile)
	cfg.Log.File = ""
	logger.Init(cfg.Log)
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	db, err := cfg.OpenGormDB(nil)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	if err := model.Migrate(db); err != nil {
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return cfg, db, nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
