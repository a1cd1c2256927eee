package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"pdfask/internal/domain"
	"pdfask/internal/workflow"
)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	errColor  = color.New(color.FgRed, color.Bold)
	headColor = color.New(color.FgCyan, color.Bold)
	dimColor  = color.New(color.FgHiBlack)
)

// PrintError writes err the way every command reports failures.
func PrintError(w io.Writer, err error) {
	errColor.Fprintf(w, "Error: %v\n", err)
}

func printUpload(w io.Writer, doc string, out domain.UploadOutcome) {
	if out.Status != domain.UploadSuccess {
		return
	}
	okColor.Fprintf(w, "Uploaded %s", doc)
	if name, ok := out.ServerFilename.Get(); ok && name != doc {
		fmt.Fprintf(w, " as %s", name)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", out.Message.OrElse(""))
	if n, ok := out.ChunksProcessed.Get(); ok {
		dimColor.Fprintf(w, "  %d chunks processed\n", n)
	}
}

func printAnswer(w io.Writer, ans workflow.Answer) {
	res := ans.Result
	okColor.Fprintf(w, "Found %d results in %dms\n", len(res.Fragments), ans.Elapsed.Milliseconds())
	if answer, ok := res.Answer.Get(); ok && answer != "" {
		fmt.Fprintln(w)
		headColor.Fprintln(w, "Answer")
		fmt.Fprintln(w, answer)
	}
	if len(res.Fragments) > 0 {
		fmt.Fprintln(w)
		headColor.Fprintf(w, "Relevant chunks (%d)\n", len(res.Fragments))
		for i, f := range res.Fragments {
			fmt.Fprintf(w, "%d.", i+1)
			if score, ok := f.Score.Get(); ok {
				dimColor.Fprintf(w, " [score %.2f]", score)
			}
			fmt.Fprintf(w, " %s\n", f.Text)
			if label, ok := f.SourceLabel.Get(); ok {
				dimColor.Fprintf(w, "   Source: %s\n", label)
			}
		}
	}
	if sources, ok := res.Sources.Get(); ok && len(sources) > 0 {
		fmt.Fprintln(w)
		headColor.Fprintln(w, "Sources")
		for _, s := range sources {
			fmt.Fprintf(w, "  - %s\n", s)
		}
	}
}
