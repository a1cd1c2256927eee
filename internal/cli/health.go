package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the backend is up",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := client.Health(cmd.Context())
		if err != nil {
			return fmt.Errorf("health: %w", err)
		}
		w := cmd.OutOrStdout()
		if !h.Healthy() {
			return fmt.Errorf("backend %s (database %s): %s", h.Status, h.Database, h.Error.OrElse("no details"))
		}
		okColor.Fprintf(w, "%s is %s\n", client.BaseURL(), h.Status)
		fmt.Fprintf(w, "  database: %s\n  documents: %d\n", h.Database, h.Documents)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show how much the backend has indexed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := client.Stats(cmd.Context())
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		headColor.Fprintln(w, "Index statistics")
		fmt.Fprintf(w, "  documents: %d\n  chunks: %d\n  chunks per document: %.1f\n",
			s.TotalDocuments, s.TotalChunks, s.AverageChunksPerDocument)
		return nil
	},
}
