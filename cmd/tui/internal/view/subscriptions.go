package view

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Africa-Access-Water/afaw-api/internal/subscription"
)

type SubscriptionLister interface {
	List(ctx context.Context, filter subscription.ListFilter) ([]*subscription.Subscription, error)
}

var subscriptionStatusFilters = []struct {
	label  string
	status *subscription.Status
}{
	{"All", nil},
	{"Active", new(subscription.StatusActive)},
	{"Past Due", new(subscription.StatusPastDue)},
	{"Initiated", new(subscription.StatusInitiated)},
	{"Canceled", new(subscription.StatusCanceled)},
	{"Expired", new(subscription.StatusExpired)},
}

type SubscriptionsModel struct {
	service SubscriptionLister

	table table.Model
	rows  []*subscription.Subscription

	statusFilterIdx int

	loading bool
	err     error
}

func NewSubscriptionsModel(svc SubscriptionLister) SubscriptionsModel {
	return SubscriptionsModel{
		service: svc,
		loading: true,
		table: newTable([]table.Column{
			{Title: "Started", Width: 12},
			{Title: "Status", Width: 10},
			{Title: "Amount", Width: 14},
			{Title: "Every", Width: 8},
			{Title: "Donor", Width: 24},
			{Title: "Project", Width: 24},
			{Title: "Next Billing", Width: 12},
			{Title: "Failed", Width: 6},
		}),
	}
}

func (m SubscriptionsModel) Title() string { return "Subscriptions" }

func (m SubscriptionsModel) ShortHelp() string {
	return "Esc: back | s: status filter | r: refresh"
}

func (m SubscriptionsModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m SubscriptionsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadSubscriptionsMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.rows = msg.subscriptions
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
			m.statusFilterIdx = (m.statusFilterIdx + 1) % len(subscriptionStatusFilters)
			m.loading = true
			return m, m.loadCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *SubscriptionsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.rows))
	for _, s := range m.rows {
		rows = append(rows, table.Row{
			FormatDate(s.CreatedAt),
			string(s.Status),
			FormatAmount(s.Amount, s.Currency),
			string(s.Interval),
			s.DonorName,
			s.Purpose(),
			FormatOptionalDate(s.NextBillingAt),
			strconv.Itoa(s.FailedAttempts),
		})
	}
	m.table.SetRows(rows)
}

func (m SubscriptionsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading subscriptions...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
	}

	header := fmt.Sprintf(
		"Filter: [s] Status: %s | %d subscriptions",
		activeStyle(subscriptionStatusFilters[m.statusFilterIdx].label),
		len(m.rows),
	)

	return lipgloss.NewStyle().Padding(1).Render(lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		boxed(m.table.View()),
	))
}

type loadSubscriptionsMsg struct {
	subscriptions []*subscription.Subscription
	err           error
}

func (m SubscriptionsModel) loadCmd() tea.Cmd {
	filter := subscription.ListFilter{Status: subscriptionStatusFilters[m.statusFilterIdx].status}
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		subs, err := m.service.List(ctx, filter)
		return loadSubscriptionsMsg{subscriptions: subs, err: err}
	}
}
