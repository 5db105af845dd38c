package main

import (
	"github.com/spf13/cobra"

	"curaextract/internal/config"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var logLevelFlag string
	flags := &config.Flags{}

	ctx := newCommandContext(&configFlag, &logLevelFlag, flags)

	rootCmd := &cobra.Command{
		Use:           "curaextract",
		Short:         "Extract merged Cura printer settings",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	persistent := rootCmd.PersistentFlags()
	persistent.StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	persistent.StringVar(&flags.InstallDir, "install", "", "Cura installation directory (overrides config and CURA_INSTALL_DIR)")
	persistent.StringVar(&flags.UserDataDir, "user-data", "", "Cura user data directory (overrides config and CURA_USER_DATA_DIR)")
	persistent.StringVar(&flags.Manufacturer, "manufacturer", "", "Force the manufacturer tag instead of deriving it")
	persistent.StringVar(&flags.QualitySubdir, "quality-subdir", "", "Quality subdirectory searched first, relative to resources/quality")
	persistent.StringVar(&logLevelFlag, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newExtractCommand(ctx))
	rootCmd.AddCommand(newMachinesCommand(ctx))
	rootCmd.AddCommand(newChainCommand(ctx))
	rootCmd.AddCommand(newQualitiesCommand(ctx))
	rootCmd.AddCommand(newDiscoverCommand(ctx))
	rootCmd.AddCommand(newCheckCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
