package cmd

import (
	"fmt"

	"github.com/datums-app/datums-go/cmd/add"
	"github.com/datums-app/datums-go/cmd/database"
	"github.com/datums-app/datums-go/cmd/questions"
	"github.com/datums-app/datums-go/cmd/remove"
	"github.com/datums-app/datums-go/cmd/update"
	"github.com/datums-app/datums-go/internal/conf"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "datums",
		Short: "Sync Reporter JSON exports into a relational database",
	}

	setupFlags(rootCmd, settings)

	subcommands := []*cobra.Command{
		add.Command(settings),
		update.Command(settings),
		remove.Command(settings),
		questions.Command(settings),
		database.Command(settings),
	}
	rootCmd.AddCommand(subcommands...)

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.Reporter.Path, "reporter", viper.GetString("reporter.path"), "Directory containing Reporter JSON export files")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
