package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pdfask/internal/domain"
	"pdfask/internal/workflow"
)

var askFile string

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about uploaded documents",
	Long: `Ask a natural-language question and print the answer and the most
relevant fragments.

With --file the PDF is uploaded first and the question is only sent once
the upload succeeds.

Without --file there is no upload step and no ingest gate: the question is
sent straight away and answered from whatever the backend has already
ingested, which may be nothing.

Examples:
  pdfask ask --file report.pdf "What were the key findings?"
  pdfask ask "Who wrote the appendix?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askFile, "file", "f", "", "upload this PDF before asking")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	w := cmd.OutOrStdout()
	question := strings.Join(args, " ")

	var (
		ans workflow.Answer
		err error
	)
	if askFile != "" {
		session := workflow.NewSession(client, client, log)
		if _, err := uploadFile(ctx, w, session, askFile); err != nil {
			return err
		}
		fmt.Fprintln(w)
		ans, err = session.Ask(ctx, question)
	} else {
		ans, err = workflow.NewAsker(client, log).Ask(ctx, question)
	}
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return fmt.Errorf("query interrupted: %w", ctx.Err())
	}
	if ans.Result.Status != domain.QuerySuccess {
		return fmt.Errorf("query failed: %s", ans.Result.Message.OrElse("unknown error"))
	}
	printAnswer(w, ans)
	return nil
}
