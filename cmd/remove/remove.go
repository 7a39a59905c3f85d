package remove

import (
	"fmt"

	"github.com/datums-app/datums-go/internal/conf"
	"github.com/datums-app/datums-go/internal/datastore"
	"github.com/datums-app/datums-go/internal/logging"
	"github.com/datums-app/datums-go/internal/pipeline"
	"github.com/datums-app/datums-go/internal/reporter"
	"github.com/spf13/cobra"
)

// Command creates the delete command for removing previously ingested reports.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [export.json ...]",
		Short: "Delete reports found in Reporter export files from the database",
		Long: `Delete every report listed in the given export files. Deleting a report
cascades to all of its nested reports and responses.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(settings, args)
		},
	}
}

func run(settings *conf.Settings, args []string) error {
	store := datastore.New(settings)
	if store == nil {
		return fmt.Errorf("no database output enabled in configuration")
	}
	if err := store.Open(); err != nil {
		return err
	}
	defer store.Close()

	log := logging.ForService("delete")
	sync := pipeline.NewSynchronizer(store)

	for _, file := range args {
		docs, err := reporter.LoadExport(file)
		if err != nil {
			return err
		}
		for _, doc := range docs {
			if err := sync.DeleteReport(doc); err != nil {
				return fmt.Errorf("failed to delete report from %s: %w", file, err)
			}
		}
		log.Info("export deleted", "file", file, "reports", len(docs))
	}

	return nil
}
