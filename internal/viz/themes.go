package viz

import "github.com/charmbracelet/lipgloss"

// Theme colors the canvas and the panel title.
type Theme struct {
	Name   string
	Canvas lipgloss.Color
	Title  lipgloss.Color
}

var Themes = []Theme{
	{Name: "cyberpunk", Canvas: lipgloss.Color("#00ffff"), Title: lipgloss.Color("#ff00ff")},
	{Name: "retro", Canvas: lipgloss.Color("#00ff00"), Title: lipgloss.Color("#88ff88")},
	{Name: "minimal", Canvas: lipgloss.Color("#ffffff"), Title: lipgloss.Color("#0088ff")},
	{Name: "ocean", Canvas: lipgloss.Color("#00a8cc"), Title: lipgloss.Color("#ffd700")},
}

// GetTheme returns the named theme, or the first one.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

// NextTheme returns the theme after t, wrapping around.
func NextTheme(t Theme) Theme {
	for i, th := range Themes {
		if th.Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
