// Package cli reads lines from a terminal and prints how they split.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/bastiangx/wordsplit/pkg/split"
)

// Splitter is the part of split.Splitter the CLI needs.
type Splitter interface {
	Split(words []string, maxVariants int) (*split.Results, error)
	Trace(words []string) (string, error)
	Decoder() string
}

var (
	wordStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	inputStyle = lipgloss.NewStyle().Faint(true)
)

// InputHandler splits every line typed on its input, tokenised on whitespace,
// and prints the ranked variants.
type InputHandler struct {
	splitter     Splitter
	variants     int
	showWeights  bool
	in           io.Reader
	out          io.Writer
	requestCount int
}

// NewInputHandler reads stdin and writes to stdout.
func NewInputHandler(sp Splitter, variants int, showWeights bool) *InputHandler {
	return NewInputHandlerWithIO(sp, variants, showWeights, os.Stdin, os.Stdout)
}

// NewInputHandlerWithIO reads r and writes to w.
func NewInputHandlerWithIO(sp Splitter, variants int, showWeights bool, r io.Reader, w io.Writer) *InputHandler {
	return &InputHandler{
		splitter:    sp,
		variants:    variants,
		showWeights: showWeights,
		in:          r,
		out:         w,
	}
}

// Start runs until the input ends.
func (h *InputHandler) Start() error {
	fmt.Fprintf(h.out, "wordsplit CLI (decoder: %s)\n", h.splitter.Decoder())
	fmt.Fprintln(h.out, "type some text and press Enter to see how it splits (Ctrl+D to exit):")

	reader := bufio.NewReader(h.in)
	for {
		fmt.Fprint(h.out, "> ")
		line, err := reader.ReadString('\n')
		if strings.TrimSpace(line) != "" {
			h.handleInput(line)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(h.out)
				return nil
			}
			return err
		}
	}
}

func (h *InputHandler) handleInput(line string) {
	h.requestCount++
	words := strings.Fields(line)
	joined := strings.Join(words, " ")

	start := time.Now()
	results, err := h.splitter.Split(words, h.variants)
	elapsed := time.Since(start)
	if err != nil {
		log.Errorf("Cannot split %q: %v", joined, err)
		return
	}
	log.Debugf("Took [ %v ] for '%s' (request %d)", elapsed, joined, h.requestCount)
	if log.GetLevel() <= log.DebugLevel {
		h.logTrace(words)
	}

	ranked := results.Ranked()
	if len(ranked) == 0 {
		fmt.Fprintf(h.out, "No better split for '%s'\n", joined)
		return
	}

	fmt.Fprintf(h.out, "Found %d variants for '%s':\n", len(ranked), joined)
	hint := fmt.Sprintf("    %s\n", inputStyle.Render("(input as typed ranks here)"))
	for i, r := range ranked {
		if results.FellBack() && i == results.InputRank() {
			fmt.Fprint(h.out, hint)
		}
		text := wordStyle.Render(strings.Join(r.Words, " "))
		if h.showWeights {
			fmt.Fprintf(h.out, "%2d. %-40s (weight: %.2f)\n", i+1, text, r.Weight)
		} else {
			fmt.Fprintf(h.out, "%2d. %s\n", i+1, text)
		}
	}
	if results.FellBack() && results.InputRank() >= len(ranked) {
		fmt.Fprint(h.out, hint)
	}
}

// logTrace dumps the decoder lattice for words at debug level.
func (h *InputHandler) logTrace(words []string) {
	trace, err := h.splitter.Trace(words)
	if err != nil {
		log.Debugf("No lattice for %q: %v", words, err)
		return
	}
	if trace != "" {
		log.Debug("Lattice\n" + trace)
	}
}
