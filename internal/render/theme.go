// Package render turns laid-out history rows, ref labels and diffs into
// styled terminal text.
package render

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"
	darkmode "github.com/thiagokokada/dark-mode-go"
)

type ThemePreference int

const (
	ThemeAuto ThemePreference = iota
	ThemeLight
	ThemeDark
)

func (p ThemePreference) String() string {
	switch p {
	case ThemeLight:
		return "light"
	case ThemeDark:
		return "dark"
	default:
		return "auto"
	}
}

// ParseTheme accepts "auto", "light" or "dark" in any case; "" means auto.
func ParseTheme(raw string) (ThemePreference, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", ThemeAuto.String():
		return ThemeAuto, nil
	case ThemeLight.String():
		return ThemeLight, nil
	case ThemeDark.String():
		return ThemeDark, nil
	default:
		return ThemeAuto, fmt.Errorf("unknown theme %q (want auto, light or dark)", raw)
	}
}

// Palette holds every colour the renderer uses for one theme.
type Palette struct {
	Dark  bool
	Lanes []lipgloss.Color

	Text     lipgloss.Color
	Dim      lipgloss.Color
	Selected lipgloss.Color

	DiffAdd    lipgloss.Color
	DiffDel    lipgloss.Color
	DiffHeader lipgloss.Color
	DiffHunk   lipgloss.Color
}

var (
	lightPalette = Palette{
		Lanes: []lipgloss.Color{
			"#00cc00", "#cc0000", "#0055cc", "#aa00aa", "#555555", "#8b4513", "#ff8c00",
		},
		Text:       "#111111",
		Dim:        "#8a8a8a",
		Selected:   "#dbeafe",
		DiffAdd:    "#dff5de",
		DiffDel:    "#f9d6d5",
		DiffHeader: "#e4e4e4",
		DiffHunk:   "#0055cc",
	}
	darkPalette = Palette{
		Dark: true,
		Lanes: []lipgloss.Color{
			"#00ff00", "#ff5c5c", "#4fa3ff", "#d56bff", "#a0a0a0", "#d09a6b", "#ffb347",
		},
		Text:       "#eaeaea",
		Dim:        "#6b6b6b",
		Selected:   "#253446",
		DiffAdd:    "#1f3d2b",
		DiffDel:    "#3d1f29",
		DiffHeader: "#2f2f2f",
		DiffHunk:   "#4fa3ff",
	}
	detectDarkMode = darkmode.IsDarkMode
)

// PaletteFor returns the palette for pref, asking the desktop for its
// appearance when pref is ThemeAuto. Detection failures fall back to light.
func PaletteFor(pref ThemePreference) Palette {
	switch pref {
	case ThemeDark:
		return darkPalette
	case ThemeLight:
		return lightPalette
	default:
		if detectDarkMode != nil {
			dark, err := detectDarkMode()
			if err != nil {
				slog.Debug("detect dark-mode", slog.Any("error", err))
			} else if dark {
				return darkPalette
			}
		}
		return lightPalette
	}
}

// Lane returns the colour of a history colour index. Colours cycle through
// the palette.
func (p Palette) Lane(color uint) lipgloss.Color {
	if len(p.Lanes) == 0 {
		return p.Text
	}
	return p.Lanes[color%uint(len(p.Lanes))]
}
