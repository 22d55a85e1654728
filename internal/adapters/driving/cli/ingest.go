package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/duhman/volterra-knowledge-engine/internal/core/domain"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [source-id]",
	Short: "Ingest documents from configured sources",
	Long: `Runs the ingestion pipeline: list, chunk, embed and persist documents
from every enabled source, or from a single source when an ID is given.
Unchanged documents are skipped by content hash.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	sources := loadSources(configStore)
	if len(sources) == 0 {
		return fmt.Errorf("no sources configured; add one with 'vke sources add'")
	}

	if len(args) == 1 {
		source, err := findSource(sources, args[0])
		if err != nil {
			return err
		}
		report, err := ingestService.IngestSource(cmd.Context(), *source)
		if err != nil {
			return fmt.Errorf("ingest %s: %w", source.ID, err)
		}
		printReport(cmd, report)
		return nil
	}

	reports, err := ingestService.IngestAll(cmd.Context(), sources)
	if err != nil {
		return err
	}
	for i := range reports {
		printReport(cmd, &reports[i])
	}
	return nil
}

func findSource(sources []domain.Source, id string) (*domain.Source, error) {
	for i := range sources {
		if sources[i].ID == id {
			return &sources[i], nil
		}
	}
	return nil, fmt.Errorf("source %q: %w", id, domain.ErrNotFound)
}

func printReport(cmd *cobra.Command, report *domain.IngestReport) {
	cmd.Printf("%s: %d listed, %d processed, %d skipped, %d failed\n",
		report.SourceType, report.Total, report.Processed, report.Skipped, report.Failed)
	for _, batchErr := range report.Errors {
		cmd.Printf("  failed %s: %s\n", batchErr.Identifier, batchErr.Message)
	}
	if report.ElidedErrors > 0 {
		cmd.Printf("  ... and %d more failures\n", report.ElidedErrors)
	}
}
