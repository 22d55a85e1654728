package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/duhman/volterra-knowledge-engine/internal/core/domain"
)

var (
	searchPartitions []string
	searchLimit      int
	searchJSON       bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Semantic search over the knowledge base",
	Long: `Searches the knowledge base by embedding the query and ranking
chunks by cosine similarity. Results can be restricted to specific
partitions (documents, conversations, messages, tickets, deals).`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringSliceVar(&searchPartitions, "partition", nil, "partitions to search (default all)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum matches per partition")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	grouped, err := searchService.Search(cmd.Context(), args[0], domain.SearchOptions{
		Partitions: searchPartitions,
		MatchCount: searchLimit,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		data, err := json.MarshalIndent(grouped, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	printMatches(cmd, grouped)
	return nil
}

func printMatches(cmd *cobra.Command, grouped map[string][]domain.Match) {
	total := 0
	for _, partition := range domain.Partitions {
		matches := grouped[partition]
		if len(matches) == 0 {
			continue
		}
		total += len(matches)

		cmd.Printf("%s:\n", partition)
		for i, m := range matches {
			title := m.Title
			if title == "" {
				title = m.ID
			}
			cmd.Printf("  [%d] %s (%.2f)\n", i+1, title, m.Similarity)
			cmd.Printf("      %s\n", snippet(m.Content, 160))
		}
		cmd.Println()
	}

	if total == 0 {
		cmd.Println("No results found.")
	}
}

func snippet(content string, max int) string {
	if len(content) <= max {
		return content
	}
	return content[:max] + "..."
}
