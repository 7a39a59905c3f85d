package questions

import (
	"fmt"

	"github.com/datums-app/datums-go/internal/conf"
	"github.com/datums-app/datums-go/internal/datastore"
	"github.com/datums-app/datums-go/internal/logging"
	"github.com/datums-app/datums-go/internal/pipeline"
	"github.com/datums-app/datums-go/internal/reporter"
	"github.com/spf13/cobra"
)

// Command creates the questions command for seeding the question catalog.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "questions",
		Short: "Manage the question catalog",
	}
	cmd.AddCommand(syncCommand(settings))
	return cmd
}

func syncCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "sync [catalog.json]",
		Short: "Load question catalog entries into the database",
		Long: `Load question catalog entries, a JSON array of {questionType, prompt}
objects. Responses can only be ingested for prompts present in the catalog,
so run this before the first add.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := settings.Reporter.Questions
			if len(args) > 0 {
				path = args[0]
			}
			return run(settings, path)
		},
	}
}

func run(settings *conf.Settings, path string) error {
	store := datastore.New(settings)
	if store == nil {
		return fmt.Errorf("no database output enabled in configuration")
	}
	if err := store.Open(); err != nil {
		return err
	}
	defer store.Close()

	docs, err := reporter.LoadQuestions(path)
	if err != nil {
		return err
	}

	sync := pipeline.NewSynchronizer(store)
	for _, doc := range docs {
		if err := sync.AddQuestion(doc); err != nil {
			return fmt.Errorf("failed to sync question catalog entry: %w", err)
		}
	}

	logging.ForService("questions").Info("question catalog synced",
		"path", path, "questions", len(docs))
	return nil
}
