package add

import (
	"fmt"

	"github.com/datums-app/datums-go/internal/conf"
	"github.com/datums-app/datums-go/internal/datastore"
	"github.com/datums-app/datums-go/internal/logging"
	"github.com/datums-app/datums-go/internal/pipeline"
	"github.com/datums-app/datums-go/internal/reporter"
	"github.com/spf13/cobra"
)

// Command creates the add command for ingesting Reporter export files.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "add [export.json ...]",
		Short: "Ingest Reporter export files into the database",
		Long: `Ingest one or more Reporter JSON export files. Without arguments every
export file in the configured Reporter directory is ingested. Re-running
add over already-ingested exports is safe and will not create duplicates.`,
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

	files := args
	if len(files) == 0 {
		discovered, err := reporter.DiscoverExports(settings.Reporter.Path)
		if err != nil {
			return err
		}
		files = discovered
	}

	log := logging.ForService("add")
	sync := pipeline.NewSynchronizer(store)

	for _, file := range files {
		docs, err := reporter.LoadExport(file)
		if err != nil {
			return err
		}
		for _, doc := range docs {
			result, err := sync.AddReport(doc)
			if err != nil {
				return fmt.Errorf("failed to ingest report from %s: %w", file, err)
			}
			if len(result.ResponseErrors) > 0 {
				log.Warn("some responses were not ingested",
					"file", file,
					"failed", len(result.ResponseErrors))
			}
		}
		log.Info("export ingested", "file", file, "reports", len(docs))
	}

	return nil
}
