package update

import (
	"fmt"

	"github.com/datums-app/datums-go/internal/conf"
	"github.com/datums-app/datums-go/internal/datastore"
	"github.com/datums-app/datums-go/internal/logging"
	"github.com/datums-app/datums-go/internal/pipeline"
	"github.com/datums-app/datums-go/internal/reporter"
	"github.com/spf13/cobra"
)

// Command creates the update command for re-syncing Reporter export files.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "update [export.json ...]",
		Short: "Re-sync Reporter export files, overwriting stored values",
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

	log := logging.ForService("update")
	sync := pipeline.NewSynchronizer(store)

	for _, file := range files {
		docs, err := reporter.LoadExport(file)
		if err != nil {
			return err
		}
		for _, doc := range docs {
			result, err := sync.UpdateReport(doc)
			if err != nil {
				return fmt.Errorf("failed to update report from %s: %w", file, err)
			}
			if len(result.ResponseErrors) > 0 {
				log.Warn("some responses were not updated",
					"file", file,
					"failed", len(result.ResponseErrors))
			}
		}
		log.Info("export updated", "file", file, "reports", len(docs))
	}

	return nil
}
