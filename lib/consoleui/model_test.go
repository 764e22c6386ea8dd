// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package consoleui

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"

	"github.com/bureau-foundation/uaconsole/lib/alarm"
	"github.com/bureau-foundation/uaconsole/lib/remote"
	"github.com/bureau-foundation/uaconsole/lib/session"
	"github.com/bureau-foundation/uaconsole/lib/ua"
)

// fakeController runs keys through the real transition table without
// doing any remote work.
type fakeController struct {
	mu     sync.Mutex
	mode   session.Mode
	keys   []string
	alarms []alarm.Entry
}

func (f *fakeController) Mode() session.Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode
}

func (f *fakeController) HandleKey(_ context.Context, key string) session.Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	f.mode, _ = session.Transition(f.mode, session.ParseKey(f.mode, key))
	return f.mode
}

func (f *fakeController) Identity() remote.Identity {
	return remote.Identity{Kind: remote.IdentityUserName, UserName: "operator"}
}

func (f *fakeController) Alarms() []alarm.Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alarms
}

func (f *fakeController) handled() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.keys...)
}

func newTestModel(t *testing.T, controller *fakeController) Model {
	t.Helper()
	model := NewModel(t.Context(), Config{
		Controller: controller,
		Profile:    termenv.Ascii,
	})
	updated, _ := model.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(Model)
}

func press(model Model, keyType tea.KeyType, runes ...rune) (Model, tea.Cmd) {
	updated, cmd := model.Update(tea.KeyMsg{Type: keyType, Runes: runes})
	return updated.(Model), cmd
}

func TestMenuKeyRunsOnCommand(t *testing.T) {
	controller := &fakeController{}
	model := newTestModel(t, controller)

	model, cmd := press(model, tea.KeyRunes, '0')
	if cmd == nil {
		t.Fatal("menu key returned no command")
	}
	if !model.busy {
		t.Error("model not busy while the key is handled")
	}

	// Keys are ignored while busy.
	if _, second := press(model, tea.KeyRunes, '1'); second != nil {
		t.Error("second key dispatched while busy")
	}

	message := cmd()
	handled, ok := message.(handledMsg)
	if !ok || handled.mode != session.ModeConnected {
		t.Fatalf("command returned %#v, want handledMsg in connected", message)
	}
	updated, _ := model.Update(handled)
	model = updated.(Model)
	if model.busy || model.mode != session.ModeConnected {
		t.Errorf("after handled: busy=%v mode=%s", model.busy, model.mode)
	}
	if keys := controller.handled(); len(keys) != 1 || keys[0] != "0" {
		t.Errorf("controller keys = %v, want [0]", keys)
	}
	if !strings.Contains(model.View(), "Disconnect") {
		t.Errorf("connected menu not shown:\n%s", model.View())
	}
}

func TestUnmappedKeyIsIgnored(t *testing.T) {
	controller := &fakeController{}
	model := newTestModel(t, controller)

	if _, cmd := press(model, tea.KeyRunes, 'Q'); cmd != nil {
		t.Error("unmapped key dispatched")
	}
}

func TestShutdownQuits(t *testing.T) {
	controller := &fakeController{mode: session.ModeConnected}
	model := newTestModel(t, controller)

	model, cmd := press(model, tea.KeyCtrlC)
	if cmd == nil {
		t.Fatal("ctrl+c returned no command")
	}
	handled := cmd().(handledMsg)
	if handled.mode != session.ModeShutdown {
		t.Fatalf("mode = %s, want %s", handled.mode, session.ModeShutdown)
	}
	_, quit := model.Update(handled)
	if quit == nil {
		t.Fatal("no command after shutdown")
	}
	if _, ok := quit().(tea.QuitMsg); !ok {
		t.Error("shutdown did not quit the program")
	}
}

func TestOutputFollowsAndIsBounded(t *testing.T) {
	controller := &fakeController{}
	model := NewModel(t.Context(), Config{Controller: controller, Profile: termenv.Ascii, MaxLines: 3})
	updated, _ := model.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	model = updated.(Model)

	updated, _ = model.Update(outputMsg{lines: []string{"line-1", "line-2", "line-3", "line-4"}})
	model = updated.(Model)
	if len(model.lines) != 3 || model.lines[0] != "line-2" {
		t.Errorf("lines = %v, want the last three", model.lines)
	}
	view := model.View()
	if !strings.Contains(view, "line-4") || strings.Contains(view, "line-1") {
		t.Errorf("view:\n%s", view)
	}
}

func TestBacklogIsShown(t *testing.T) {
	console := NewConsole()
	console.Write([]byte("Successfully connected\npartial"))
	model := NewModel(t.Context(), Config{Controller: &fakeController{}, Console: console, Profile: termenv.Ascii})
	updated, _ := model.Update(tea.WindowSizeMsg{Width: 80, Height: 20})

	view := updated.(Model).View()
	if !strings.Contains(view, "Successfully connected") {
		t.Errorf("backlog missing:\n%s", view)
	}
	if strings.Contains(view, "partial") {
		t.Errorf("incomplete line shown:\n%s", view)
	}
}

func TestAlarmPanel(t *testing.T) {
	fields := make([]ua.Variant, alarm.FieldCount)
	fields[alarm.FieldSourceName] = ua.NewVariant("Boiler1")
	fields[alarm.FieldMessage] = ua.NewVariant("level high")
	fields[alarm.FieldAckedStateID] = ua.NewVariant(false)
	controller := &fakeController{mode: session.ModeConnected}
	model := newTestModel(t, controller)
	before := model.output.Height

	controller.mu.Lock()
	controller.alarms = []alarm.Entry{{ConditionID: ua.NewNumericNodeID(2, 7), Fields: fields}}
	controller.mu.Unlock()
	updated, _ := model.Update(refreshMsg{})
	model = updated.(Model)

	view := model.View()
	if !strings.Contains(view, "Alarm 0:") || !strings.Contains(view, "Boiler1") {
		t.Errorf("alarm panel missing:\n%s", view)
	}
	if model.output.Height >= before {
		t.Errorf("output height %d did not shrink from %d for the alarm panel", model.output.Height, before)
	}
}

func TestHeaderShowsModeAndIdentity(t *testing.T) {
	model := newTestModel(t, &fakeController{mode: session.ModeBrowsingMore})
	header := model.headerView()
	if !strings.Contains(header, session.ModeBrowsingMore.String()) || !strings.Contains(header, "user operator") {
		t.Errorf("header = %q", header)
	}
}

func TestLogRecordFades(t *testing.T) {
	model := newTestModel(t, &fakeController{})

	updated, cmd := model.Update(logRecordMsg{Summary: "reading namespace array failed", Level: slog.LevelWarn})
	model = updated.(Model)
	if cmd == nil {
		t.Fatal("log record scheduled no fade")
	}
	if !strings.Contains(model.statusView(), "reading namespace array failed") {
		t.Errorf("status = %q", model.statusView())
	}

	// A newer record survives the fade of the older one.
	updated, _ = model.Update(logRecordMsg{Summary: "second", Level: slog.LevelError})
	model = updated.(Model)
	updated, _ = model.Update(logRecordFadeMsg{Sequence: 1})
	model = updated.(Model)
	if !strings.Contains(model.statusView(), "second") {
		t.Errorf("newer record cleared by an older fade: %q", model.statusView())
	}
	updated, _ = model.Update(logRecordFadeMsg{Sequence: 2})
	model = updated.(Model)
	if model.record != nil {
		t.Error("record not cleared by its fade")
	}
}

func TestLogHandlerSummary(t *testing.T) {
	handler := NewLogHandler(slog.LevelWarn)
	if handler.Enabled(t.Context(), slog.LevelInfo) {
		t.Error("info enabled at warn level")
	}
	derived := handler.WithAttrs([]slog.Attr{slog.String("component", "session")}).WithGroup("op").(*LogHandler)
	if derived.program != handler.program {
		t.Error("derived handler does not share the program pointer")
	}

	record := slog.NewRecord(time.Now(), slog.LevelWarn, "operation failed", 0)
	record.AddAttrs(slog.String("operation", "Browse"))
	want := "operation failed (component=session, op.operation=Browse)"
	if got := derived.summary(record); got != want {
		t.Errorf("summary = %q, want %q", got, want)
	}

	// No program yet: records are dropped without error.
	if err := derived.Handle(t.Context(), record); err != nil {
		t.Errorf("Handle: %v", err)
	}
}
