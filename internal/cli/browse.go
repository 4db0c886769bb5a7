package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowboard/pkg/flow"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// browseCommand creates the browse command for interactively exploring a
// flowchart file.
func (c *CLI) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse [file]",
		Short: "Interactively explore a flowchart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := flow.ReadFile(args[0])
			if err != nil {
				return err
			}
			if len(fc.Nodes) == 0 {
				printInfo("flowchart has no nodes")
				return nil
			}

			_, err = tea.NewProgram(NewBrowseModel(fc)).Run()
			return err
		},
	}
}

// =============================================================================
// BrowseModel - Interactive node exploration
// =============================================================================

// BrowseModel is the bubbletea model for exploring a flowchart node by node.
// The right-hand pane shows the outgoing edges and the full reachable set of
// the selected node, recomputed on every cursor move.
type BrowseModel struct {
	Chart  *flow.Flowchart
	Cursor int
	Height int
	Offset int
}

// NewBrowseModel creates a new browse model over the given flowchart.
func NewBrowseModel(fc *flow.Flowchart) BrowseModel {
	return BrowseModel{
		Chart:  fc,
		Cursor: 0,
		Height: 15,
		Offset: 0,
	}
}

func (m BrowseModel) Init() tea.Cmd {
	return nil
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Chart.Nodes)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 8
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m BrowseModel) View() string {
	var b strings.Builder

	title := m.Chart.Name
	if title == "" {
		title = "Flowchart"
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Chart.Nodes) {
		end = len(m.Chart.Nodes)
	}

	left := m.renderNodeList(end)
	right := m.renderNodeDetail()

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, "   ", right))
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Chart.Nodes))))

	return b.String()
}

// renderNodeList renders the scrollable node column.
func (m BrowseModel) renderNodeList(end int) string {
	var b strings.Builder

	for i := m.Offset; i < end; i++ {
		n := m.Chart.Nodes[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		line := fmt.Sprintf("%s%-20s", cursor, n.DisplayLabel())
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderNodeDetail renders the edges and reachability pane for the cursor node.
func (m BrowseModel) renderNodeDetail() string {
	var b strings.Builder
	n := m.Chart.Nodes[m.Cursor]

	b.WriteString(StyleHighlight.Render(n.ID))
	if n.Label != "" {
		b.WriteString("  " + listDimStyle.Render(n.Label))
	}
	b.WriteString("\n\n")

	edges := m.Chart.OutgoingEdges(n.ID)
	b.WriteString(listDimStyle.Render("Outgoing edges"))
	b.WriteString("\n")
	if len(edges) == 0 {
		b.WriteString(listDimStyle.Render("  none"))
		b.WriteString("\n")
	}
	for _, e := range edges {
		b.WriteString("  " + listDimStyle.Render(iconArrow) + " " + listNormalStyle.Render(e.Target))
		b.WriteString("\n")
	}

	connected := flow.ReachableFrom(m.Chart.Nodes, m.Chart.Edges, n.ID)
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("Reachable (%d)", len(connected))))
	b.WriteString("\n")
	if len(connected) == 0 {
		b.WriteString(listDimStyle.Render("  none"))
	}
	for i, id := range connected {
		b.WriteString("  " + listNormalStyle.Render(id))
		if i < len(connected)-1 {
			b.WriteString("\n")
		}
	}

	return b.String()
}
