package inspect

import "github.com/charmbracelet/lipgloss"

type styleSet struct {
	Title    lipgloss.Style
	Header   lipgloss.Style
	Selected lipgloss.Style
	Muted    lipgloss.Style
	Range    lipgloss.Style
	LatestAt lipgloss.Style
	Empty    lipgloss.Style
	Source   lipgloss.Style
}

func stylesFor(theme string) styleSet {
	if theme == "mono" {
		plain := lipgloss.NewStyle()
		return styleSet{
			Title:    plain.Bold(true),
			Header:   plain.Bold(true).Underline(true),
			Selected: plain.Reverse(true),
			Muted:    plain.Faint(true),
			Range:    plain,
			LatestAt: plain,
			Empty:    plain.Faint(true),
			Source:   plain.Faint(true),
		}
	}
	return styleSet{
		Title:    lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true),
		Header:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true),
		Selected: lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("24")),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
		Range:    lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
		LatestAt: lipgloss.NewStyle().Foreground(lipgloss.Color("221")),
		Empty:    lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		Source:   lipgloss.NewStyle().Foreground(lipgloss.Color("147")),
	}
}
