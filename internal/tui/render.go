package tui

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"pdfask/internal/domain"
	"pdfask/internal/query"
	"pdfask/internal/workflow"
)

var (
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	answerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	unicodeWordRe  = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe     = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

func renderSteps(snap workflow.Snapshot) string {
	one := "1. Upload"
	two := "2. Ask"
	if snap.Step == domain.StepReadyToQuery {
		one = dimStyle.Render(one + " ✓ " + snap.DocumentName)
		two = activeStep.Render(two)
	} else {
		one = activeStep.Render(one)
		two = dimStyle.Render(two)
	}
	return one + "  " + two
}

// renderResult shows the answer, the fragment under the cursor and the
// source list of the last resolved query.
func renderResult(snap workflow.Snapshot, cursor int) string {
	if snap.QueryState == query.Querying {
		req, _ := snap.InFlight.Get()
		return fmt.Sprintf("Searching for %q ...", req.Text)
	}
	res, ok := snap.Result.Get()
	if !ok {
		if snap.Step == domain.StepReadyToQuery {
			return "Ask a question about " + snap.DocumentName + "."
		}
		return "No document uploaded yet."
	}
	if res.Status != domain.QuerySuccess {
		return errStyle.Render(res.Message.OrElse("An error occurred while processing your query."))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Query: %q\n\n", res.OriginQuery)
	if answer, ok := res.Answer.Get(); ok && answer != "" {
		b.WriteString(answerStyle.Render("Answer") + "\n" + answer + "\n\n")
	}
	if len(res.Fragments) == 0 {
		b.WriteString("No relevant chunks found.")
	} else {
		if cursor < 0 || cursor >= len(res.Fragments) {
			cursor = 0
		}
		f := res.Fragments[cursor]
		title := fmt.Sprintf("Chunk %d/%d", cursor+1, len(res.Fragments))
		if score, ok := f.Score.Get(); ok {
			title += fmt.Sprintf("  score=%.2f", score)
		}
		b.WriteString(title + "\n\n")
		b.WriteString(highlightBestSentence(f.Text, res.OriginQuery))
		if label, ok := f.SourceLabel.Get(); ok {
			b.WriteString("\n" + dimStyle.Render("Source: "+label))
		}
	}
	if sources, ok := res.Sources.Get(); ok && len(sources) > 0 {
		b.WriteString("\n\nSources:\n")
		for _, s := range sources {
			b.WriteString("  - " + s + "\n")
		}
	}
	return b.String()
}

// highlightBestSentence marks the sentence sharing the most distinct words
// with question. Nothing is marked when no sentence shares a word.
func highlightBestSentence(text, question string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	asked := wordSet(question)
	sentences := splitSentences(text)
	best, bestHits := -1, 0
	for i, s := range sentences {
		sentences[i] = strings.TrimSpace(s)
		if hits := sharedWords(asked, wordSet(s)); hits > bestHits {
			best, bestHits = i, hits
		}
	}
	if best >= 0 {
		sentences[best] = highlightStyle.Render(sentences[best])
	}
	return strings.Join(sentences, " ")
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range unicodeWordRe.FindAllString(strings.ToLower(s), -1) {
		set[w] = true
	}
	return set
}

func sharedWords(a, b map[string]bool) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for w := range a {
		if b[w] {
			n++
		}
	}
	return n
}

// splitSentences keeps trailing text that has no closing punctuation.
func splitSentences(text string) []string {
	locs := sentenceRe.FindAllStringIndex(text, -1)
	sentences := make([]string, 0, len(locs)+1)
	end := 0
	for _, loc := range locs {
		sentences = append(sentences, text[loc[0]:loc[1]])
		end = loc[1]
	}
	if tail := strings.TrimSpace(text[end:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}
