package view

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Africa-Access-Water/afaw-api/internal/donation"
)

type DonationLister interface {
	List(ctx context.Context, filter donation.ListFilter) ([]*donation.Donation, error)
}

var donationStatusFilters = []struct {
	label  string
	status *donation.Status
}{
	{"All", nil},
	{"Initiated", new(donation.StatusInitiated)},
	{"Completed", new(donation.StatusCompleted)},
	{"Failed", new(donation.StatusFailed)},
	{"Expired", new(donation.StatusExpired)},
}

var dateFilters = []Timeframe{TimeframeAll, TimeframeThisMonth, TimeframeLastMonth, TimeframeThisYear}

type DonationsModel struct {
	service DonationLister

	table table.Model
	rows  []*donation.Donation

	statusFilterIdx int
	dateFilterIdx   int
	filter          donation.ListFilter

	loading bool
	err     error
}

func NewDonationsModel(svc DonationLister) DonationsModel {
	return DonationsModel{
		service: svc,
		loading: true,
		table: newTable([]table.Column{
			{Title: "Date", Width: 12},
			{Title: "Status", Width: 10},
			{Title: "Amount", Width: 14},
			{Title: "Donor", Width: 24},
			{Title: "Email", Width: 28},
			{Title: "Project", Width: 24},
			{Title: "Payment", Width: 28},
		}),
	}
}

func (m DonationsModel) Title() string { return "Donations" }

func (m DonationsModel) ShortHelp() string {
	return "Esc: back | s: status filter | d: date filter | r: refresh"
}

func (m DonationsModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m DonationsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadDonationsMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.rows = msg.donations
			m.refreshTable()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "s":
			m.statusFilterIdx = (m.statusFilterIdx + 1) % len(donationStatusFilters)
			m.applyFilter(time.Now())
			m.loading = true
			return m, m.loadCmd()
		case "d":
			m.dateFilterIdx = (m.dateFilterIdx + 1) % len(dateFilters)
			m.applyFilter(time.Now())
			m.loading = true
			return m, m.loadCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *DonationsModel) applyFilter(now time.Time) {
	m.filter.Status = donationStatusFilters[m.statusFilterIdx].status
	m.filter.From, m.filter.To = nil, nil

	if tf := dateFilters[m.dateFilterIdx]; tf != TimeframeAll {
		from, to := tf.Range(now)
		m.filter.From, m.filter.To = &from, &to
	}
}

func (m *DonationsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.rows))
	for _, d := range m.rows {
		payment := "-"
		if d.PaymentRef != nil {
			payment = *d.PaymentRef
		}

		rows = append(rows, table.Row{
			FormatDate(d.CreatedAt),
			string(d.Status),
			FormatAmount(d.Amount, d.Currency),
			d.DonorName,
			d.DonorEmail,
			d.Purpose(),
			payment,
		})
	}
	m.table.SetRows(rows)
}

func (m DonationsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading donations...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
	}

	header := fmt.Sprintf(
		"Filter: [s] Status: %s | [d] Date: %s | %d donations",
		activeStyle(donationStatusFilters[m.statusFilterIdx].label),
		activeStyle(dateFilters[m.dateFilterIdx].String()),
		len(m.rows),
	)

	return lipgloss.NewStyle().Padding(1).Render(lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		boxed(m.table.View()),
	))
}

type loadDonationsMsg struct {
	donations []*donation.Donation
	err       error
}

func (m DonationsModel) loadCmd() tea.Cmd {
	filter := m.filter
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		donations, err := m.service.List(ctx, filter)
		return loadDonationsMsg{donations: donations, err: err}
	}
}
