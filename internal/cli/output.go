package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// printer writes command output. Output is styled only when w is a
// terminal, so it stays plain when piped.
type printer struct {
	w      io.Writer
	styled bool

	header  lipgloss.Style
	subtle  lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
}

func newPrinter(w io.Writer) *printer {
	return newPrinterStyled(w, isTerminal(w))
}

func newPrinterStyled(w io.Writer, styled bool) *printer {
	p := &printer{w: w, styled: styled}
	if !styled {
		return p
	}

	p.header = lipgloss.NewStyle().Bold(true)
	p.subtle = lipgloss.NewStyle().Faint(true)
	p.success = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	p.warning = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	p.failure = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))

	return p
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return term.IsTerminal(int(f.Fd())) //nolint:gosec // G115: fd fits in int.
}

func (p *printer) render(s lipgloss.Style, text string) string {
	if !p.styled {
		return text
	}

	return s.Render(text)
}

// Row writes one tab separated line. The first column is rendered with
// style when output is styled.
func (p *printer) Row(style lipgloss.Style, cols ...string) {
	if len(cols) > 0 {
		cols[0] = p.render(style, cols[0])
	}

	mustN(fmt.Fprintln(p.w, strings.Join(cols, "\t")))
}

func (p *printer) Line(style lipgloss.Style, text string) {
	mustN(fmt.Fprintln(p.w, p.render(style, text)))
}

// YAML writes a YAML document, highlighted when output is styled.
func (p *printer) YAML(doc string) error {
	if !p.styled {
		_, err := fmt.Fprint(p.w, doc)
		if err != nil {
			return fmt.Errorf("write yaml: %w", err)
		}

		return nil
	}

	lexer := chroma.Coalesce(lexers.Get("YAML"))

	formatterName := "noop"
	switch termenv.ColorProfile() {
	case termenv.TrueColor:
		formatterName = "terminal16m"

	case termenv.ANSI256:
		formatterName = "terminal256"

	case termenv.ANSI:
		formatterName = "terminal8"
	}

	iterator, err := lexer.Tokenise(nil, doc)
	if err != nil {
		return fmt.Errorf("lexer tokenize: %w", err)
	}

	buf := &bytes.Buffer{}

	err = formatters.Get(formatterName).Format(buf, styles.Get("monokai"), iterator)
	if err != nil {
		return fmt.Errorf("format: %w", err)
	}

	mustN(fmt.Fprintln(p.w, strings.TrimSpace(buf.String())))

	return nil
}
