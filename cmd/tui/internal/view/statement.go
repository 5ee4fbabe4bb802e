package view

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/Africa-Access-Water/afaw-api/internal/statement"
)

const statementTimeout = time.Minute

type StatementChecker interface {
	Check(ctx context.Context, r io.Reader) (*statement.Report, error)
}

type statementState int

const (
	statementStatePath statementState = iota
	statementStateChecking
	statementStateResult
)

// StatementModel checks a processor payments export against recorded donations.
type StatementModel struct {
	service StatementChecker

	state   statementState
	form    *huh.Form
	path    string
	spinner spinner.Model

	report *statement.Report
	err    error
}

func NewStatementModel(svc StatementChecker) StatementModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return StatementModel{
		service: svc,
		form:    newStatementForm(),
		spinner: s,
	}
}

func (m StatementModel) Title() string { return "Statement Check" }

func (m StatementModel) ShortHelp() string {
	switch m.state {
	case statementStateChecking:
		return "Checking..."
	case statementStateResult:
		return "Esc: back to menu | n: check another file"
	}
	return "Esc: back | Enter: confirm"
}

func (m StatementModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m StatementModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.state {
	case statementStatePath:
		return m.updatePath(msg)
	case statementStateChecking:
		return m.updateChecking(msg)
	case statementStateResult:
		return m.updateResult(msg)
	}

	return m, nil
}

func (m StatementModel) updatePath(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m, Back
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.path = m.form.GetString("path")
	m.state = statementStateChecking
	m.err = nil
	return m, tea.Batch(m.spinner.Tick, m.checkCmd(m.path))
}

func (m StatementModel) updateChecking(msg tea.Msg) (tea.Model, tea.Cmd) {
	if result, ok := msg.(statementResultMsg); ok {
		m.state = statementStateResult
		m.report = result.report
		m.err = result.err
		return m, nil
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m StatementModel) updateResult(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "esc":
		return m, Back
	case "n":
		m.state = statementStatePath
		m.report = nil
		m.err = nil
		m.form = newStatementForm()
		return m, m.form.Init()
	}

	return m, nil
}

// The path is read back with GetString since the model is copied on every update.
func newStatementForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("path").
				Title("Payments Export").
				Description("CSV exported from the processor dashboard").
				Placeholder("./payments.csv").
				Validate(validateFile),
		),
	).WithWidth(60).WithShowHelp(false)
}

func validateFile(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("path cannot be empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot read %s", path)
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}

	return nil
}

func (m StatementModel) View() string {
	switch m.state {
	case statementStatePath:
		return lipgloss.NewStyle().Padding(1).Render(m.form.View())
	case statementStateChecking:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("%s Matching charges against donations...", m.spinner.View()),
		)
	case statementStateResult:
		if m.err != nil {
			return lipgloss.NewStyle().Padding(1).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
		}
		return lipgloss.NewStyle().Padding(1).Render(RenderStatementReport(m.report))
	}

	return ""
}

// RenderStatementReport formats a report for the console.
func RenderStatementReport(r *statement.Report) string {
	var b strings.Builder

	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46")).Render("Statement matches the ledger")
	if !r.Clean() {
		header = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")).Render("Statement does not match the ledger")
	}
	b.WriteString(header + "\n\n")

	fmt.Fprintf(&b, "Format: %s (%s)\n", r.Format, r.Encoding)
	if r.Charges > 0 {
		fmt.Fprintf(&b, "Window: %s to %s\n", FormatDate(r.From), FormatDate(r.To.AddDate(0, 0, -1)))
	}
	fmt.Fprintf(&b, "Charges: %d | Matched: %d | Mismatched: %d\n", r.Charges, len(r.Matched), len(r.Mismatched))

	if len(r.Mismatched) > 0 {
		b.WriteString("\nAmount or currency differs:\n")
		for _, mm := range r.Mismatched {
			fmt.Fprintf(&b, "  row %d %s: charged %s, recorded %s\n",
				mm.Charge.Row, mm.Charge.PaymentRef,
				FormatAmount(mm.Charge.Amount, mm.Charge.Currency),
				FormatAmount(mm.Donation.Amount, mm.Donation.Currency))
		}
	}

	if len(r.UnmatchedCharges) > 0 {
		b.WriteString("\nCharged but not recorded:\n")
		for _, c := range r.UnmatchedCharges {
			fmt.Fprintf(&b, "  row %d %s %s %s\n", c.Row, FormatDate(c.Created), c.PaymentRef, FormatAmount(c.Amount, c.Currency))
		}
	}

	if len(r.UnmatchedDonations) > 0 {
		b.WriteString("\nRecorded but not charged:\n")
		for _, d := range r.UnmatchedDonations {
			fmt.Fprintf(&b, "  %s %s %s %s\n", FormatDate(d.CreatedAt), d.ID, d.DonorName, FormatAmount(d.Amount, d.Currency))
		}
	}

	return b.String()
}

type statementResultMsg struct {
	report *statement.Report
	err    error
}

func (m StatementModel) checkCmd(path string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), statementTimeout)
		defer cancel()

		f, err := os.Open(strings.TrimSpace(path))
		if err != nil {
			return statementResultMsg{err: fmt.Errorf("opening export: %w", err)}
		}
		defer f.Close()

		report, err := m.service.Check(ctx, f)
		return statementResultMsg{report: report, err: err}
	}
}
