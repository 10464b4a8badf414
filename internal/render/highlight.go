package render

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/thiagokokada/gitk-graph/internal/git"
)

// Diff colours a commit diff as produced by git.Service.Diff. Added and
// removed lines get the palette's diff backgrounds; with syntax enabled the
// code on each line is highlighted for the language of its file.
func Diff(text string, files []git.FileSection, p Palette, syntax bool) string {
	style := styleForPalette(p)
	starts := make(map[int]string, len(files))
	for _, f := range files {
		starts[f.Line] = f.Path
	}

	lines := strings.Split(text, "\n")
	out := make([]string, len(lines))
	var lexer chroma.Lexer
	inFile := false
	for i, line := range lines {
		if path, ok := starts[i+1]; ok {
			inFile = true
			lexer = nil
			if syntax {
				lexer = lexerForPath(path)
			}
			out[i] = lipgloss.NewStyle().Bold(true).Background(p.DiffHeader).Render(line)
			continue
		}
		if !inFile {
			out[i] = line
			continue
		}
		out[i] = diffLine(line, lexer, style, p)
	}
	return strings.Join(out, "\n")
}

func diffLine(line string, lexer chroma.Lexer, style *chroma.Style, p Palette) string {
	if strings.HasPrefix(line, "@@") {
		return lipgloss.NewStyle().Foreground(p.DiffHunk).Render(line)
	}
	code, offset, ok := diffLineCode(line)
	if !ok {
		if strings.HasPrefix(line, "+++ ") || strings.HasPrefix(line, "--- ") {
			return lipgloss.NewStyle().Bold(true).Render(line)
		}
		return line
	}
	base := lipgloss.NewStyle()
	switch line[0] {
	case '+':
		base = base.Background(p.DiffAdd)
	case '-':
		base = base.Background(p.DiffDel)
	}
	var b strings.Builder
	b.WriteString(base.Render(line[:offset]))
	b.WriteString(highlightCode(lexer, style, code, base))
	return b.String()
}

func highlightCode(lexer chroma.Lexer, style *chroma.Style, code string, base lipgloss.Style) string {
	if lexer == nil || style == nil || code == "" {
		return base.Render(code)
	}
	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return base.Render(code)
	}
	var b strings.Builder
	for _, token := range iterator.Tokens() {
		// Lexers that ensure a trailing newline add one the line never had.
		value := strings.ReplaceAll(token.Value, "\n", "")
		if value == "" {
			continue
		}
		st := base
		if color := colorFromEntry(style.Get(token.Type)); color != "" {
			st = st.Foreground(lipgloss.Color(color))
		}
		b.WriteString(st.Render(value))
	}
	return b.String()
}

// diffLineCode strips the +, - or space marker of a hunk line. offset is the
// marker width.
func diffLineCode(line string) (code string, offset int, ok bool) {
	if line == "" {
		return "", 0, false
	}
	switch line[0] {
	case '+', '-', ' ':
		if strings.HasPrefix(line, "+++") || strings.HasPrefix(line, "---") {
			return "", 0, false
		}
		return line[1:], 1, true
	default:
		return "", 0, false
	}
}

func styleForPalette(p Palette) *chroma.Style {
	name := "github"
	if p.Dark {
		name = "github-dark"
	}
	if st := styles.Get(name); st != nil {
		return st
	}
	return styles.Fallback
}

func colorFromEntry(entry chroma.StyleEntry) string {
	if !entry.Colour.IsSet() {
		return ""
	}
	return "#" + strings.TrimPrefix(strings.ToLower(entry.Colour.String()), "#")
}

func lexerForPath(path string) chroma.Lexer {
	if path == "" {
		return nil
	}
	lexer := lexers.Match(path)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}
