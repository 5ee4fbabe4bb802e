package view

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Africa-Access-Water/afaw-api/internal/ledger"
)

type Auditor interface {
	Audit(ctx context.Context) (*ledger.Report, error)
}

// AuditModel shows recorded project totals next to the sum of their completed donations.
type AuditModel struct {
	service Auditor

	table  table.Model
	report *ledger.Report

	driftOnly bool
	loading   bool
	err       error
}

func NewAuditModel(svc Auditor) AuditModel {
	return AuditModel{
		service: svc,
		loading: true,
		table: newTable([]table.Column{
			{Title: "Project", Width: 32},
			{Title: "Raised", Width: 14},
			{Title: "Completed", Width: 14},
			{Title: "Donations", Width: 10},
			{Title: "Drift", Width: 12},
		}),
	}
}

func (m AuditModel) Title() string { return "Ledger Audit" }

func (m AuditModel) ShortHelp() string {
	return "Esc: back | f: drifted only | r: refresh"
}

func (m AuditModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m AuditModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadAuditMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.report = msg.report
			m.refreshTable()
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "f":
			m.driftOnly = !m.driftOnly
			m.refreshTable()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *AuditModel) refreshTable() {
	if m.report == nil {
		return
	}

	totals := m.report.Projects
	if m.driftOnly {
		totals = m.report.Drifted
	}

	rows := make([]table.Row, 0, len(totals))
	for _, t := range totals {
		rows = append(rows, table.Row{
			t.ProjectName,
			t.Raised.StringFixed(2),
			t.Completed.StringFixed(2),
			strconv.Itoa(t.CompletedCount),
			t.Drift().StringFixed(2),
		})
	}
	m.table.SetRows(rows)
}

func (m AuditModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Auditing project totals...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
	}

	status := lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Render("All projects balanced")
	if n := len(m.report.Drifted); n > 0 {
		status = errorStyle(fmt.Sprintf("%d of %d projects drifted", n, len(m.report.Projects)))
	}

	filter := "All"
	if m.driftOnly {
		filter = "Drifted"
	}

	header := fmt.Sprintf("%s | [f] Showing: %s", status, activeStyle(filter))

	return lipgloss.NewStyle().Padding(1).Render(lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		boxed(m.table.View()),
	))
}

type loadAuditMsg struct {
	report *ledger.Report
	err    error
}

func (m AuditModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		report, err := m.service.Audit(ctx)
		return loadAuditMsg{report: report, err: err}
	}
}
