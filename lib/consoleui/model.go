// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package consoleui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"

	"github.com/bureau-foundation/uaconsole/lib/alarm"
	"github.com/bureau-foundation/uaconsole/lib/remote"
	"github.com/bureau-foundation/uaconsole/lib/session"
)

// Controller is the part of session.Controller the console drives.
type Controller interface {
	Mode() session.Mode
	HandleKey(ctx context.Context, key string) session.Mode
	Identity() remote.Identity
	Alarms() []alarm.Entry
}

// handledMsg reports that the controller finished a key press.
type handledMsg struct {
	mode session.Mode
}

const (
	// defaultMaxLines bounds the output history.
	defaultMaxLines = 5000

	// maxAlarmRows is the most alarm rows shown above the menu.
	maxAlarmRows = 8
)

// Config configures a Model.
type Config struct {
	Controller Controller
	Console    *Console

	// Title is shown at the left of the header.
	Title string

	Theme Theme
	Keys  KeyMap

	// Profile is the color profile of the terminal. termenv.Ascii
	// renders without escape sequences.
	Profile termenv.Profile

	// MaxLines bounds the kept output; zero means 5000.
	MaxLines int
}

// Model is the bubbletea model of the console.
type Model struct {
	ctx        context.Context
	controller Controller
	title      string
	keys       KeyMap
	styles     styles

	width  int
	height int
	ready  bool

	output   viewport.Model
	lines    []string
	maxLines int

	mode     session.Mode
	identity remote.Identity
	alarms   []alarm.Entry

	// busy is set while the controller handles a key.
	busy bool

	// Status bar log record, shown until its fade message arrives.
	record         *logRecordMsg
	recordSequence uint64
}

// NewModel returns a model over cfg.Controller. ctx bounds the remote
// calls the model starts.
func NewModel(ctx context.Context, cfg Config) Model {
	theme := cfg.Theme
	if theme == (Theme{}) {
		theme = DefaultTheme
	}
	keys := cfg.Keys
	if len(keys.Shutdown.Keys()) == 0 {
		keys = DefaultKeyMap
	}
	maxLines := cfg.MaxLines
	if maxLines <= 0 {
		maxLines = defaultMaxLines
	}
	title := cfg.Title
	if title == "" {
		title = "uaconsole"
	}

	renderer := lipgloss.NewRenderer(io.Discard, termenv.WithProfile(cfg.Profile))
	renderer.SetColorProfile(cfg.Profile)

	output := viewport.New(0, 0)
	output.KeyMap = keys.viewportKeys()

	model := Model{
		ctx:        ctx,
		controller: cfg.Controller,
		title:      title,
		keys:       keys,
		styles:     newStyles(renderer, theme),
		output:     output,
		maxLines:   maxLines,
	}
	if cfg.Console != nil {
		model.appendLines(cfg.Console.Backlog())
	}
	model.refresh()
	return model
}

func (model Model) Init() tea.Cmd {
	return nil
}

func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		return model.handleKey(message)

	case tea.MouseMsg:
		var cmd tea.Cmd
		model.output, cmd = model.output.Update(message)
		return model, cmd

	case handledMsg:
		model.busy = false
		model.refresh()
		if message.mode == session.ModeShutdown {
			return model, tea.Quit
		}

	case outputMsg:
		model.appendLines(message.lines)

	case refreshMsg:
		model.refresh()

	case logRecordMsg:
		model.recordSequence++
		model.record = &message
		sequence := model.recordSequence
		return model, tea.Tick(logRecordFadeDelay, func(time.Time) tea.Msg {
			return logRecordFadeMsg{Sequence: sequence}
		})

	case logRecordFadeMsg:
		if message.Sequence == model.recordSequence {
			model.record = nil
		}

	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.ready = true
		model.layout()
	}
	return model, nil
}

func (model Model) handleKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.PageUp), key.Matches(message, model.keys.PageDown):
		var cmd tea.Cmd
		model.output, cmd = model.output.Update(message)
		return model, cmd
	case key.Matches(message, model.keys.Top):
		model.output.GotoTop()
		return model, nil
	case key.Matches(message, model.keys.Bottom):
		model.output.GotoBottom()
		return model, nil
	}

	if model.busy {
		return model, nil
	}
	keyName := message.String()
	if key.Matches(message, model.keys.Shutdown) {
		keyName = "ctrl+c"
	}
	if session.ParseKey(model.mode, keyName).Action == session.ActionNone {
		return model, nil
	}

	model.busy = true
	ctx := model.ctx
	controller := model.controller
	return model, func() tea.Msg {
		return handledMsg{mode: controller.HandleKey(ctx, keyName)}
	}
}

// refresh re-reads the controller state and relayouts, since the alarm
// panel height depends on it.
func (model *Model) refresh() {
	model.mode = model.controller.Mode()
	model.identity = model.controller.Identity()
	model.alarms = model.controller.Alarms()
	model.layout()
}

func (model *Model) appendLines(lines []string) {
	if len(lines) == 0 {
		return
	}
	follow := model.output.AtBottom() || len(model.lines) == 0
	model.lines = append(model.lines, lines...)
	if excess := len(model.lines) - model.maxLines; excess > 0 {
		model.lines = append([]string(nil), model.lines[excess:]...)
	}
	model.output.SetContent(strings.Join(model.lines, "\n"))
	if follow {
		model.output.GotoBottom()
	}
}

// layout sizes the output pane to the space the fixed rows leave.
func (model *Model) layout() {
	if !model.ready {
		return
	}
	fixed := 1 + lipgloss.Height(model.menuView()) + 1
	if alarms := model.alarmView(); alarms != "" {
		fixed += lipgloss.Height(alarms)
	}
	height := model.height - fixed
	if height < 1 {
		height = 1
	}
	atBottom := model.output.AtBottom()
	model.output.Width = model.width
	model.output.Height = height
	if atBottom {
		model.output.GotoBottom()
	}
}

func (model Model) View() string {
	if !model.ready {
		return "starting..."
	}
	sections := []string{model.headerView(), model.styles.output.Render(model.output.View())}
	if alarms := model.alarmView(); alarms != "" {
		sections = append(sections, alarms)
	}
	sections = append(sections, model.menuView(), model.statusView())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (model Model) headerView() string {
	left := model.styles.header.Render(" " + model.title + " ")
	right := model.styles.headerMode.Render(fmt.Sprintf(" %s · %s ", model.mode, model.identity))
	gap := model.width - ansi.StringWidth(left) - ansi.StringWidth(right)
	if gap < 0 {
		return ansi.Truncate(left+right, model.width, "…")
	}
	return left + model.styles.header.Render(strings.Repeat(" ", gap)) + right
}

// alarmView lists the retained alarms, or is empty when there are none.
func (model Model) alarmView() string {
	if len(model.alarms) == 0 {
		return ""
	}
	rows := make([]string, 0, maxAlarmRows+1)
	for i, entry := range model.alarms {
		if i == maxAlarmRows {
			rows = append(rows, model.styles.help.Render(fmt.Sprintf("… %d more", len(model.alarms)-maxAlarmRows)))
			break
		}
		line := ansi.Truncate(alarm.Line(i, entry), max(model.width, 1), "…")
		style := model.styles.alarmActive
		if acked, ok := entry.Field(alarm.FieldAckedStateID).Bool(); ok && acked {
			style = model.styles.alarmAcknowledged
		}
		rows = append(rows, style.Render(line))
	}
	return model.styles.alarmBox.Width(max(model.width, 1)).Render(strings.Join(rows, "\n"))
}

// menuView flows the menu entries of the current mode into rows that
// fit the width.
func (model Model) menuView() string {
	var rows []string
	var row strings.Builder
	rowWidth := 0
	for _, item := range session.Menu(model.mode) {
		entry := model.styles.menuKey.Render(item.Key) + " " + model.styles.menuLabel.Render(item.Label)
		entryWidth := ansi.StringWidth(entry)
		if rowWidth > 0 && rowWidth+3+entryWidth > model.width {
			rows = append(rows, row.String())
			row.Reset()
			rowWidth = 0
		}
		if rowWidth > 0 {
			row.WriteString("   ")
			rowWidth += 3
		}
		row.WriteString(entry)
		rowWidth += entryWidth
	}
	if rowWidth > 0 {
		rows = append(rows, row.String())
	}
	return strings.Join(rows, "\n")
}

func (model Model) statusView() string {
	var text string
	switch {
	case model.record != nil && model.record.Level >= slog.LevelError:
		text = model.styles.error.Render(model.record.Summary)
	case model.record != nil:
		text = model.styles.warn.Render(model.record.Summary)
	case model.busy:
		text = model.styles.busy.Render("working…")
	default:
		text = model.styles.help.Render(strings.Join([]string{
			model.keys.Shutdown.Help().Key + " " + model.keys.Shutdown.Help().Desc,
			model.keys.PageUp.Help().Key + "/" + model.keys.PageDown.Help().Key + " scroll",
		}, " · "))
	}
	return ansi.Truncate(text, max(model.width, 1), "…")
}
