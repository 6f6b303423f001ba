package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"saturn-terminal/internal/saturn"
	"saturn-terminal/internal/theme"
)

const (
	navHeight    = 1
	footerHeight = 1
)

type rect struct {
	x, y, w, h int
}

func (r rect) contains(x, y int) bool {
	return r.w > 0 && r.h > 0 && x >= r.x && x < r.x+r.w && y >= r.y && y < r.y+r.h
}

// View renders the nav bar, the surface and the footer.
func (m Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}

	sections := make([]string, 0, 3)
	if m.theme != nil {
		sections = append(sections, m.navView())
	}
	if _, h := m.surfaceSize(); h > 0 {
		sections = append(sections, m.surfaceView())
	}
	sections = append(sections, m.footerView())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) navView() string {
	button := m.styles.toggle.Render(toggleText(m.theme.Mode()))
	rest := m.width - lipgloss.Width(button)
	if rest < 0 {
		rest = 0
	}
	return button + m.styles.nav.Render(strings.Repeat(" ", rest))
}

func (m Model) surfaceView() string {
	w, h := m.surfaceSize()
	return m.styles.surface.Render(strings.Join(placeFrame(m.rows, w, h), "\n"))
}

func (m Model) footerView() string {
	line := m.help.View(m.keys)
	if !m.running && m.hasSurface {
		line += "  paused"
	}
	return m.styles.footer.Width(m.width).MaxWidth(m.width).Render(line)
}

func toggleText(mode theme.Mode) string {
	return "[ " + theme.LabelFor(mode) + " ]"
}

func (m Model) navRows() int {
	if m.theme == nil {
		return 0
	}
	return navHeight
}

// surfaceSize is the region between the nav bar and the footer.
func (m Model) surfaceSize() (int, int) {
	h := m.height - m.navRows() - footerHeight
	if h < 0 {
		h = 0
	}
	return m.width, h
}

func (m Model) toggleBounds() rect {
	if m.theme == nil {
		return rect{}
	}
	return rect{x: 0, y: 0, w: len(toggleText(m.theme.Mode())), h: navHeight}
}

// pointerBox is the visible part of the frame in screen coordinates.
func (m Model) pointerBox() rect {
	w, h := m.surfaceSize()
	offX, offY := frameOffset(w, h)
	return rect{
		x: max(offX, 0),
		y: m.navRows() + max(offY, 0),
		w: min(saturn.Width, w),
		h: min(saturn.Height, h),
	}
}

// frameOffset is where the frame's top-left corner lands when centered in a
// w by h region. Negative offsets mean the frame is cropped.
func frameOffset(w, h int) (int, int) {
	return (w - saturn.Width) / 2, (h - saturn.Height) / 2
}

// placeFrame centers rows in a w by h region, padding or cropping as needed.
// Missing rows render as blank space.
func placeFrame(rows []string, w, h int) []string {
	if w <= 0 || h <= 0 {
		return nil
	}
	offX, offY := frameOffset(w, h)
	blank := strings.Repeat(" ", saturn.Width)

	out := make([]string, h)
	for y := 0; y < h; y++ {
		src := y - offY
		if src < 0 || src >= saturn.Height {
			out[y] = strings.Repeat(" ", w)
			continue
		}
		row := blank
		if src < len(rows) {
			row = rows[src]
		}
		out[y] = fitRow(row, offX, w)
	}
	return out
}

func fitRow(row string, offX, w int) string {
	if offX >= 0 {
		line := strings.Repeat(" ", offX) + row
		if pad := w - len(line); pad > 0 {
			line += strings.Repeat(" ", pad)
		}
		return line[:w]
	}
	start := -offX
	if start >= len(row) {
		return strings.Repeat(" ", w)
	}
	line := row[start:]
	if len(line) > w {
		line = line[:w]
	}
	return line
}
