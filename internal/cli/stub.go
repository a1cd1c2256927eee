package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"pdfask/internal/stub"
)

var (
	stubAddr string
	stubDir  string
)

var stubCmd = &cobra.Command{
	Use:   "stub",
	Short: "Run the legacy echo/upload stub server",
	Long: `Run the legacy stub server, a stand-in for the real ingest service.

  POST /api/query   {"query": "..."} -> {"response": "You asked: ..."}
  POST /api/upload  raw body stored as uploads/uploaded_<millis>.pdf

Point the client at it with:
  pdfask --base-url http://localhost:3000 ...
and ingest_path: /api/upload, query_path: /api/query in the config.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, dir := cfg.Stub.Addr, cfg.Stub.UploadDir
		if stubAddr != "" {
			addr = stubAddr
		}
		if stubDir != "" {
			dir = stubDir
		}
		srv := stub.New(stub.Config{UploadDir: dir}, log)

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Listen(addr) }()
		okColor.Fprintf(cmd.OutOrStdout(), "stub listening on %s, uploads go to %s\n", addr, dir)

		select {
		case err := <-errCh:
			return fmt.Errorf("stub: %w", err)
		case <-cmd.Context().Done():
			return srv.Shutdown()
		}
	},
}

func init() {
	stubCmd.Flags().StringVar(&stubAddr, "addr", "", "listen address, overrides config")
	stubCmd.Flags().StringVar(&stubDir, "dir", "", "upload directory, overrides config")
}
