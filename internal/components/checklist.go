package components

import (
	"strings"

	"github.com/dataops-tui/dataops-tui/internal/theme"
	"github.com/dataops-tui/dataops-tui/internal/utils"
)

// Checklist is a scrollable multi-select list used for suggestion sets and
// column pickers. Selection state is local and discarded whenever the items
// are replaced.
type Checklist struct {
	title    string
	items    []ChecklistItem
	cursor   int
	selected map[int]bool

	width      int
	height     int
	startIndex int
}

type ChecklistItem struct {
	Label  string
	Detail string
}

func NewChecklist(title string) *Checklist {
	return &Checklist{
		title:    title,
		selected: make(map[int]bool),
		width:    60,
		height:   15,
	}
}

func (c *Checklist) SetSize(width, height int) {
	c.width = width
	c.height = height
}

// SetItems replaces the items and resets cursor and selection.
func (c *Checklist) SetItems(items []ChecklistItem) {
	c.items = items
	c.cursor = 0
	c.startIndex = 0
	c.selected = make(map[int]bool)
}

func (c *Checklist) Len() int {
	return len(c.items)
}

func (c *Checklist) MoveUp() {
	if c.cursor > 0 {
		c.cursor--
		c.scrollToCursor()
	}
}

func (c *Checklist) MoveDown() {
	if c.cursor < len(c.items)-1 {
		c.cursor++
		c.scrollToCursor()
	}
}

func (c *Checklist) scrollToCursor() {
	visible := c.visibleRows()
	if c.cursor < c.startIndex {
		c.startIndex = c.cursor
	} else if c.cursor >= c.startIndex+visible {
		c.startIndex = c.cursor - visible + 1
	}
}

func (c *Checklist) visibleRows() int {
	rows := c.height - 3 // header + divider + footer
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (c *Checklist) Toggle() {
	if len(c.items) == 0 {
		return
	}
	c.selected[c.cursor] = !c.selected[c.cursor]
}

func (c *Checklist) SelectAll() {
	for i := range c.items {
		c.selected[i] = true
	}
}

func (c *Checklist) ClearSelection() {
	c.selected = make(map[int]bool)
}

// SelectedIndices returns the selected item positions in item order.
func (c *Checklist) SelectedIndices() []int {
	var out []int
	for i := range c.items {
		if c.selected[i] {
			out = append(out, i)
		}
	}
	return out
}

func (c *Checklist) SelectedCount() int {
	return len(c.SelectedIndices())
}

func (c *Checklist) Render() string {
	lines := make([]string, 0, c.height)

	if c.title != "" {
		lines = append(lines,
			theme.RenderSelectionHeader(c.title, c.SelectedCount(), len(c.items), c.width),
			theme.RenderDivider(c.width))
	}

	if len(c.items) == 0 {
		lines = append(lines, theme.RenderTextDim("No items"))
		return strings.Join(lines, "\n")
	}

	end := c.startIndex + c.visibleRows()
	if end > len(c.items) {
		end = len(c.items)
	}
	for i := c.startIndex; i < end; i++ {
		item := c.items[i]
		label := item.Label
		if item.Detail != "" {
			label += " " + theme.RenderTextDim("- "+utils.TruncateString(item.Detail, c.width-len(item.Label)-10))
		}
		lines = append(lines, theme.RenderCheckboxItem(label, c.selected[i], c.width, i == c.cursor))
	}

	lines = append(lines, theme.RenderHelpBar([]string{
		"[space] toggle", "[a] all", "[c] clear",
	}, c.width))

	return strings.Join(lines, "\n")
}
