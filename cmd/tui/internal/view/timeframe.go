package view

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Timeframe is a predefined or custom reporting window.
type Timeframe int

const (
	TimeframeThisMonth Timeframe = iota
	TimeframeLastMonth
	TimeframeThisYear
	TimeframeLastYear
	TimeframeAll
	TimeframeCustom
)

func (t Timeframe) String() string {
	switch t {
	case TimeframeThisMonth:
		return "This Month"
	case TimeframeLastMonth:
		return "Last Month"
	case TimeframeThisYear:
		return "This Year"
	case TimeframeLastYear:
		return "Last Year"
	case TimeframeAll:
		return "All Time"
	case TimeframeCustom:
		return "Custom Range"
	}

	return "Unknown"
}

// Range returns the UTC window [from, to) for t relative to now. Not defined for All or Custom.
func (t Timeframe) Range(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	year := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)

	switch t {
	case TimeframeThisMonth:
		return month, month.AddDate(0, 1, 0)
	case TimeframeLastMonth:
		return month.AddDate(0, -1, 0), month
	case TimeframeThisYear:
		return year, year.AddDate(1, 0, 0)
	case TimeframeLastYear:
		return year.AddDate(-1, 0, 0), year
	}

	return time.Time{}, time.Time{}
}

// parseDays reads two inclusive YYYY-MM-DD days into a [from, to) window.
func parseDays(start, end string) (time.Time, time.Time, error) {
	from, err := time.Parse(time.DateOnly, strings.TrimSpace(start))
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid start date (YYYY-MM-DD)")
	}

	last, err := time.Parse(time.DateOnly, strings.TrimSpace(end))
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid end date (YYYY-MM-DD)")
	}

	if last.Before(from) {
		return time.Time{}, time.Time{}, errors.New("end date is before start date")
	}

	return from, last.AddDate(0, 0, 1), nil
}

// TimeframeSelectedMsg carries the chosen window. From and To are zero when All is true.
type TimeframeSelectedMsg struct {
	From time.Time
	To   time.Time // Exclusive
	All  bool
}

type timeframeState int

const (
	timeframeStateSelect timeframeState = iota
	timeframeStateCustom
)

// TimeframePicker selects a reporting window.
type TimeframePicker struct {
	state    timeframeState
	selected Timeframe

	startInput textinput.Model
	endInput   textinput.Model
	focusIndex int

	err error
}

func NewTimeframePicker(initial Timeframe) TimeframePicker {
	si := textinput.New()
	si.Placeholder = "YYYY-MM-DD"
	si.CharLimit = 10
	si.Width = 12
	si.Prompt = "Start Date: "

	ei := textinput.New()
	ei.Placeholder = "YYYY-MM-DD"
	ei.CharLimit = 10
	ei.Width = 12
	ei.Prompt = "End Date:   "

	return TimeframePicker{
		state:      timeframeStateSelect,
		selected:   initial,
		startInput: si,
		endInput:   ei,
	}
}

func (m TimeframePicker) Update(msg tea.Msg) (TimeframePicker, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if m.state == timeframeStateSelect {
			return m.updateSelect(keyMsg)
		}

		if next, cmd, handled := m.updateCustom(keyMsg); handled {
			return next, cmd
		}
	}

	if m.state != timeframeStateCustom {
		return m, nil
	}

	var cmds []tea.Cmd
	var c tea.Cmd

	m.startInput, c = m.startInput.Update(msg)
	cmds = append(cmds, c)
	m.endInput, c = m.endInput.Update(msg)
	cmds = append(cmds, c)

	return m, tea.Batch(cmds...)
}

func (m TimeframePicker) updateSelect(msg tea.KeyMsg) (TimeframePicker, tea.Cmd) {
	switch msg.Type {
	case tea.KeyUp:
		if m.selected > TimeframeThisMonth {
			m.selected--
		}
	case tea.KeyDown:
		if m.selected < TimeframeCustom {
			m.selected++
		}
	case tea.KeyEnter:
		switch m.selected {
		case TimeframeCustom:
			m.state = timeframeStateCustom
			m.focusIndex = 0
			m.startInput.Focus()
			return m, textinput.Blink
		case TimeframeAll:
			return m, func() tea.Msg { return TimeframeSelectedMsg{All: true} }
		}

		from, to := m.selected.Range(time.Now())
		return m, func() tea.Msg { return TimeframeSelectedMsg{From: from, To: to} }
	}

	return m, nil
}

func (m TimeframePicker) updateCustom(msg tea.KeyMsg) (TimeframePicker, tea.Cmd, bool) {
	switch msg.String() {
	case "tab", "shift+tab":
		m.focusIndex = (m.focusIndex + 1) % 2
		m.startInput.Blur()
		m.endInput.Blur()
		if m.focusIndex == 0 {
			m.startInput.Focus()
		} else {
			m.endInput.Focus()
		}
		return m, textinput.Blink, true

	case "enter":
		from, to, err := parseDays(m.startInput.Value(), m.endInput.Value())
		if err != nil {
			m.err = err
			return m, nil, true
		}

		m.err = nil
		return m, func() tea.Msg { return TimeframeSelectedMsg{From: from, To: to} }, true

	case "esc":
		m.state = timeframeStateSelect
		m.err = nil
		return m, nil, true
	}

	return m, nil, false
}

func (m TimeframePicker) View() string {
	errStr := ""
	if m.err != nil {
		errStr = errorStyle(fmt.Sprintf("\n\nError: %v", m.err))
	}

	if m.state == timeframeStateCustom {
		return fmt.Sprintf(
			"Enter Custom Range (inclusive):\n\n%s\n%s\n\n(Enter to confirm, Tab to switch, Esc to back)%s",
			m.startInput.View(),
			m.endInput.View(),
			errStr,
		)
	}

	var b strings.Builder
	b.WriteString("Select Timeframe:\n\n")
	for tf := TimeframeThisMonth; tf <= TimeframeCustom; tf++ {
		cursor := " "
		if m.selected == tf {
			cursor = ">"
		}
		fmt.Fprintf(&b, "%s %s\n", cursor, tf)
	}
	b.WriteString("\n(Enter to select, Esc to back)")

	return b.String() + errStr
}

// IsSelecting reports whether the picker is on the preset list rather than custom input.
func (m TimeframePicker) IsSelecting() bool {
	return m.state == timeframeStateSelect
}

// Reset returns the picker to the preset list.
func (m *TimeframePicker) Reset() {
	m.state = timeframeStateSelect
	m.err = nil
	m.startInput.SetValue("")
	m.endInput.SetValue("")
}
