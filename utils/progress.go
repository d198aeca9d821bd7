package utils

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

var (
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
)

// ProgressBar renders a single-line progress bar with a status message.
type ProgressBar struct {
	mu    sync.Mutex
	out   io.Writer
	bar   progress.Model
	total int
}

// NewProgressBar creates a ProgressBar that writes to out (usually stderr).
func NewProgressBar(out io.Writer) *ProgressBar {
	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40
	return &ProgressBar{out: out, bar: bar}
}

func (p *ProgressBar) Start(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total = total
}

// Update shows the record at index as in progress.
func (p *ProgressBar) Update(index int, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.total == 0 {
		return
	}
	pct := float64(index) / float64(p.total)
	fmt.Fprintf(p.out, "\r\033[K%s %d/%d %s", p.bar.ViewAs(pct), index, p.total, statusStyle.Render(message))
}

func (p *ProgressBar) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "\r\033[K%s %d/%d %s\n", p.bar.ViewAs(1), p.total, p.total, doneStyle.Render("Complete!"))
}

// NopProgress discards progress updates.
type NopProgress struct{}

func (NopProgress) Start(int)          {}
func (NopProgress) Update(int, string) {}
func (NopProgress) Done()              {}
