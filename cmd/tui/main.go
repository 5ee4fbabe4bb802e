package main

import (
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/Africa-Access-Water/afaw-api/cmd/tui/internal/view"
	"github.com/Africa-Access-Water/afaw-api/internal/config"
	"github.com/Africa-Access-Water/afaw-api/internal/database"
	"github.com/Africa-Access-Water/afaw-api/internal/donation"
	donationStore "github.com/Africa-Access-Water/afaw-api/internal/donation/store"
	"github.com/Africa-Access-Water/afaw-api/internal/export"
	"github.com/Africa-Access-Water/afaw-api/internal/ledger"
	ledgerStore "github.com/Africa-Access-Water/afaw-api/internal/ledger/store"
	"github.com/Africa-Access-Water/afaw-api/internal/receipt"
	"github.com/Africa-Access-Water/afaw-api/internal/statement"
	"github.com/Africa-Access-Water/afaw-api/internal/subscription"
	subscriptionStore "github.com/Africa-Access-Water/afaw-api/internal/subscription/store"
)

type model struct {
	donationService     *donation.Service
	subscriptionService *subscription.Service
	ledgerService       *ledger.Service
	statementService    *statement.Service
	exportService       *export.Service

	currentView View

	donationsView     view.DonationsModel
	subscriptionsView view.SubscriptionsModel
	auditView         view.AuditModel
	statementView     view.StatementModel
	receiptsView      view.ReceiptsModel
}

type View int

const (
	ViewMenu View = iota
	ViewDonations
	ViewSubscriptions
	ViewAudit
	ViewStatement
	ViewReceipts
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	donationSvc := donation.NewService(donationStore.New(db))

	var renderer export.Renderer
	if cfg.Receipt.RendererURL != "" {
		renderer = receipt.NewClient(cfg.Receipt.RendererURL, cfg.Receipt.Timeout, receipt.DefaultOrganization)
	}

	return model{
		donationService:     donationSvc,
		subscriptionService: subscription.NewService(subscriptionStore.New(db)),
		ledgerService:       ledger.NewService(ledgerStore.New(db)),
		statementService:    statement.NewService(donationSvc),
		exportService:       export.NewService(donationSvc, renderer),
		currentView:         ViewMenu,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewDonations
				m.donationsView = view.NewDonationsModel(m.donationService)

				return m, m.donationsView.Init()
			case "2":
				m.currentView = ViewSubscriptions
				m.subscriptionsView = view.NewSubscriptionsModel(m.subscriptionService)

				return m, m.subscriptionsView.Init()
			case "3":
				m.currentView = ViewAudit
				m.auditView = view.NewAuditModel(m.ledgerService)

				return m, m.auditView.Init()
			case "4":
				m.currentView = ViewStatement
				m.statementView = view.NewStatementModel(m.statementService)

				return m, m.statementView.Init()
			case "5":
				m.currentView = ViewReceipts
				m.receiptsView = view.NewReceiptsModel(m.exportService)

				return m, m.receiptsView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewDonations:
		var newModel tea.Model
		newModel, cmd = m.donationsView.Update(msg)
		m.donationsView = newModel.(view.DonationsModel)
	case ViewSubscriptions:
		var newModel tea.Model
		newModel, cmd = m.subscriptionsView.Update(msg)
		m.subscriptionsView = newModel.(view.SubscriptionsModel)
	case ViewAudit:
		var newModel tea.Model
		newModel, cmd = m.auditView.Update(msg)
		m.auditView = newModel.(view.AuditModel)
	case ViewStatement:
		var newModel tea.Model
		newModel, cmd = m.statementView.Update(msg)
		m.statementView = newModel.(view.StatementModel)
	case ViewReceipts:
		var newModel tea.Model
		newModel, cmd = m.receiptsView.Update(msg)
		m.receiptsView = newModel.(view.ReceiptsModel)
	}

	return m, cmd
}

func (m model) View() string {
	var current view.View

	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"Africa Access Water Admin\n\n" +
				"1. Donations\n" +
				"2. Subscriptions\n" +
				"3. Ledger Audit\n" +
				"4. Statement Check\n" +
				"5. Export Receipts\n\n" +
				"q. Quit",
		)
	case ViewDonations:
		current = m.donationsView
	case ViewSubscriptions:
		current = m.subscriptionsView
	case ViewAudit:
		current = m.auditView
	case ViewStatement:
		current = m.statementView
	case ViewReceipts:
		current = m.receiptsView
	default:
		return "Unknown View"
	}

	title := lipgloss.NewStyle().Bold(true).Padding(1, 1, 0).Render(current.Title())
	help := lipgloss.NewStyle().Faint(true).Padding(0, 1).Render(current.ShortHelp())

	return lipgloss.JoinVertical(lipgloss.Left, title, current.View(), help)
}

func main() {
	p := tea.NewProgram(initialModel(), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
