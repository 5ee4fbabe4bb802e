package view

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/Africa-Access-Water/afaw-api/internal/export"
)

const exportTimeout = 5 * time.Minute

type ReceiptExporter interface {
	Enabled() bool
	Export(ctx context.Context, filter export.Filter, outputDir string) ([]export.Item, error)
	Summary(items []export.Item) string
}

type exportState int

const (
	exportStateTimeframe exportState = iota
	exportStatePath
	exportStateExporting
	exportStateResult
)

// ReceiptsModel writes receipt PDFs for completed donations in a chosen window.
type ReceiptsModel struct {
	service ReceiptExporter

	state           exportState
	timeframePicker TimeframePicker
	selected        TimeframeSelectedMsg

	form    *huh.Form
	spinner spinner.Model
	summary string
	err     error
}

func NewReceiptsModel(svc ReceiptExporter) ReceiptsModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := ReceiptsModel{
		service:         svc,
		state:           exportStateTimeframe,
		timeframePicker: NewTimeframePicker(TimeframeLastMonth),
		spinner:         s,
	}

	if !svc.Enabled() {
		m.state = exportStateResult
		m.err = export.ErrRendererDisabled
	}

	return m
}

func (m ReceiptsModel) Title() string { return "Export Receipts" }

func (m ReceiptsModel) ShortHelp() string {
	switch m.state {
	case exportStateResult:
		return "Esc: back to menu"
	case exportStateExporting:
		return "Exporting..."
	}
	return "Esc: back | Enter: confirm"
}

func (m ReceiptsModel) Init() tea.Cmd {
	return nil
}

func (m ReceiptsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if tfMsg, ok := msg.(TimeframeSelectedMsg); ok {
		m.selected = tfMsg
		m.form = newPathForm()
		m.state = exportStatePath
		return m, m.form.Init()
	}

	switch m.state {
	case exportStateTimeframe:
		return m.updateTimeframe(msg)
	case exportStatePath:
		return m.updatePath(msg)
	case exportStateExporting:
		return m.updateExporting(msg)
	case exportStateResult:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
			return m, Back
		}
	}

	return m, nil
}

func (m ReceiptsModel) updateTimeframe(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc && m.timeframePicker.IsSelecting() {
			return m, Back
		}
	}

	var cmd tea.Cmd
	m.timeframePicker, cmd = m.timeframePicker.Update(msg)
	return m, cmd
}

func (m ReceiptsModel) updatePath(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = exportStateTimeframe
		m.timeframePicker.Reset()
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	path := m.form.GetString("path")
	if path == "" {
		path = "./receipts"
	}

	m.state = exportStateExporting
	m.err = nil
	return m, tea.Batch(m.spinner.Tick, m.runExportCmd(m.selected, path))
}

func (m ReceiptsModel) updateExporting(msg tea.Msg) (tea.Model, tea.Cmd) {
	if result, ok := msg.(exportResultMsg); ok {
		m.state = exportStateResult
		m.err = result.err
		m.summary = result.body
		return m, nil
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func newPathForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("path").
				Title("Output Path").
				Description("Directory will be created if it doesn't exist").
				Placeholder("./receipts"),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m ReceiptsModel) View() string {
	switch m.state {
	case exportStateTimeframe:
		return lipgloss.NewStyle().Padding(1).Render(m.timeframePicker.View())

	case exportStatePath:
		return lipgloss.NewStyle().Padding(1).Render(m.form.View())

	case exportStateExporting:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("%s Rendering receipts...", m.spinner.View()),
		)

	case exportStateResult:
		if m.err != nil {
			return lipgloss.NewStyle().Padding(1).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
		}

		header := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("46")).
			Render("Export Complete!")

		return lipgloss.NewStyle().Padding(1).Render(
			lipgloss.JoinVertical(lipgloss.Left, header, "", "Summary:", "", m.summary),
		)
	}

	return ""
}

type exportResultMsg struct {
	body string
	err  error
}

func (m ReceiptsModel) runExportCmd(tf TimeframeSelectedMsg, path string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
		defer cancel()

		var filter export.Filter
		if !tf.All {
			filter.From = &tf.From
			filter.To = &tf.To
		}

		items, err := m.service.Export(ctx, filter, path)
		if err != nil {
			return exportResultMsg{err: err}
		}

		return exportResultMsg{body: m.service.Summary(items)}
	}
}
