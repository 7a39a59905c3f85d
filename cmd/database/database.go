package database

import (
	"fmt"

	"github.com/datums-app/datums-go/internal/conf"
	"github.com/datums-app/datums-go/internal/datastore"
	"github.com/datums-app/datums-go/internal/logging"
	"github.com/spf13/cobra"
)

// Command creates the database command for schema management.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "database",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(setupCommand(settings), teardownCommand(settings))
	return cmd
}

func setupCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Create or migrate the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open(settings)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Setup(); err != nil {
				return err
			}
			logging.ForService("database").Info("schema set up")
			return nil
		},
	}
}

func teardownCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "teardown",
		Short: "Drop every table in the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open(settings)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Teardown(); err != nil {
				return err
			}
			logging.ForService("database").Info("schema torn down")
			return nil
		},
	}
}

func open(settings *conf.Settings) (datastore.Interface, error) {
	store := datastore.New(settings)
	if store == nil {
		return nil, fmt.Errorf("no database output enabled in configuration")
	}
	if err := store.Open(); err != nil {
		return nil, err
	}
	return store, nil
}
