package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"pdfask/internal/domain"
	"pdfask/internal/workflow"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file.pdf>",
	Short: "Upload a PDF to the ingest service",
	Long: `Upload a PDF to the ingest service so it can be queried.

Examples:
  pdfask upload report.pdf
  pdfask upload --base-url http://rag.internal:8000 report.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func runUpload(cmd *cobra.Command, args []string) error {
	session := workflow.NewSession(client, client, log)
	_, err := uploadFile(cmd.Context(), cmd.OutOrStdout(), session, args[0])
	return err
}

// uploadFile selects and uploads path, turning a failed outcome into an error.
func uploadFile(ctx context.Context, w io.Writer, s *workflow.Session, path string) (domain.UploadOutcome, error) {
	if err := s.SelectFile(path); err != nil {
		return domain.UploadOutcome{}, err
	}
	out, err := s.Upload(ctx)
	if err != nil {
		return out, err
	}
	if ctx.Err() != nil {
		return out, fmt.Errorf("upload interrupted: %w", ctx.Err())
	}
	if out.Status != domain.UploadSuccess {
		return out, fmt.Errorf("upload failed: %s", out.Message.OrElse("unknown error"))
	}
	printUpload(w, s.Snapshot().DocumentName, out)
	return out, nil
}
