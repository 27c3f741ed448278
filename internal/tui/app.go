// Package tui is the terminal client: it renders engine snapshots with tcell
// and turns keys and mouse clicks into engine inputs.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/samwiegames/overheat/internal/domain/popup"
	"github.com/samwiegames/overheat/internal/domain/powerup"
	"github.com/samwiegames/overheat/internal/engine"
	"github.com/samwiegames/overheat/internal/platform/logger"
)

const frameInterval = 16 * time.Millisecond // ~60 FPS

// Game is the part of the engine the client talks to.
type Game interface {
	Submit(in engine.Input) bool
	Snapshot() engine.Snapshot
}

// App owns the screen for the lifetime of a terminal session.
type App struct {
	screen tcell.Screen
	game   Game
	tuning engine.Tuning
	layout Layout
	logger *logger.Logger

	last      engine.Snapshot
	mouseDown bool
}

// New creates a client on an initialized screen.
func New(screen tcell.Screen, game Game, t engine.Tuning, log *logger.Logger) *App {
	if log == nil {
		log = logger.Discard()
	}
	w, h := screen.Size()
	return &App{
		screen: screen,
		game:   game,
		tuning: t,
		layout: NewLayout(w, h, t),
		logger: log,
	}
}

// Run draws frames and handles input until ctx ends or the player quits.
func (a *App) Run(ctx context.Context) error {
	a.screen.EnableMouse()
	a.screen.HideCursor()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	a.draw(a.game.Snapshot())
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if a.handleEvent(ev) {
				return nil
			}
		case <-ticker.C:
			a.draw(a.game.Snapshot())
		}
	}
}

// handleEvent returns true when the player asked to quit.
func (a *App) handleEvent(ev tcell.Event) bool {
	switch e := ev.(type) {
	case *tcell.EventKey:
		in, quit, ok := keyInput(e.Key(), e.Rune())
		if quit {
			return true
		}
		if ok {
			a.submit(in)
		}
	case *tcell.EventMouse:
		pressed := e.Buttons()&tcell.Button1 != 0
		if pressed && !a.mouseDown {
			x, y := e.Position()
			a.click(x, y)
		}
		a.mouseDown = pressed
	case *tcell.EventResize:
		w, h := a.screen.Size()
		a.layout = NewLayout(w, h, a.tuning)
		a.screen.Sync()
	}
	return false
}

// keyInput maps a key press to an input. quit is set for Esc, Ctrl-C and q.
func keyInput(key tcell.Key, r rune) (in engine.Input, quit bool, ok bool) {
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return in, true, false
	case tcell.KeyRune:
	default:
		return in, false, false
	}

	in.ActorID = engine.ActorPlayer
	switch r {
	case 'q', 'Q':
		return in, true, false
	case ' ':
		in.Kind = engine.InputCatch
	case 'r', 'R':
		in.Kind = engine.InputRestart
	case '1', '2', '3':
		in.Kind = engine.InputConsume
		in.Powerup = powerup.Kinds[r-'1']
	default:
		return in, false, false
	}
	return in, false, true
}

// click closes the topmost popup under the cell, if any.
func (a *App) click(x, y int) {
	id, ok := a.layout.PopupAt(a.last.Popups, x, y)
	if !ok {
		return
	}
	a.submit(engine.Input{Kind: engine.InputClosePopup, ActorID: engine.ActorPlayer, PopupID: id})
}

func (a *App) submit(in engine.Input) {
	if !a.game.Submit(in) {
		a.logger.Warn("input queue full, dropped " + string(in.Kind))
	}
}

func (a *App) draw(snap engine.Snapshot) {
	a.last = snap
	a.screen.Clear()

	a.drawStatus(snap)
	for _, p := range snap.Popups {
		a.drawPopup(p)
	}
	a.drawLane(snap)
	a.drawInventory(snap)
	a.drawText(0, a.layout.HelpRow(), tcell.StyleDefault.Foreground(tcell.ColorGray),
		"click: close popup  space: catch  1/2/3: use  r: restart  q: quit")
	if snap.GameOver {
		a.drawGameOver(snap)
	}

	a.screen.Show()
}

func (a *App) drawStatus(snap engine.Snapshot) {
	style := tcell.StyleDefault.Foreground(heatColor(snap.HeatNormalized)).Bold(true)
	x := a.drawText(0, 0, style, "OVERHEAT ")
	x = a.drawText(x, 0, style, heatBar(snap.HeatNormalized, 20))
	x = a.drawText(x, 0, style, fmt.Sprintf(" %5.1f°F ", snap.HeatFahrenheit))

	plain := tcell.StyleDefault
	x = a.drawText(x, 0, plain, fmt.Sprintf(" TIME %s  BEST %s", snap.ElapsedText, snap.BestText))
	if snap.Frozen {
		a.drawText(x, 0, tcell.StyleDefault.Foreground(tcell.ColorAqua), fmt.Sprintf("  FROZEN %.1fs", snap.FreezeLeft))
	}
}

func (a *App) drawPopup(p popup.Popup) {
	r := a.layout.PopupRect(p)
	style, title := popupLook(p.Kind)
	for y := r.Y; y < r.Y+r.H; y++ {
		for x := r.X; x < r.X+r.W; x++ {
			ch := ' '
			switch {
			case (y == r.Y || y == r.Y+r.H-1) && (x == r.X || x == r.X+r.W-1):
				ch = '+'
			case y == r.Y || y == r.Y+r.H-1:
				ch = '-'
			case x == r.X || x == r.X+r.W-1:
				ch = '|'
			}
			a.screen.SetContent(x, y, ch, nil, style)
		}
	}
	a.screen.SetContent(r.X+r.W-2, r.Y, 'x', nil, style.Bold(true))
	if len(title) <= r.W-2 {
		a.drawText(r.X+(r.W-len(title))/2, r.Y+r.H/2, style, title)
	}
}

func (a *App) drawLane(snap engine.Snapshot) {
	row := a.layout.LaneRow()
	lane := tcell.StyleDefault.Foreground(tcell.ColorGray)
	for x := 0; x < a.layout.Width; x++ {
		a.screen.SetContent(x, row, '-', nil, lane)
	}
	lo, hi := a.layout.ZoneColumns()
	zone := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	a.screen.SetContent(lo, row, '[', nil, zone)
	a.screen.SetContent(hi, row, ']', nil, zone)

	if snap.Token == nil {
		return
	}
	style := tcell.StyleDefault.Foreground(tokenColor(snap.Token.Kind)).Bold(true)
	if snap.Token.Opacity < 0.5 {
		style = style.Bold(false).Dim(true)
	}
	a.screen.SetContent(a.layout.LaneColumn(snap.Token.Offset), row, tokenGlyph(snap.Token.Kind), nil, style)
}

func (a *App) drawInventory(snap engine.Snapshot) {
	x := 0
	row := a.layout.InventoryRow()
	for i, k := range powerup.Kinds {
		style := tcell.StyleDefault.Foreground(tokenColor(k))
		if snap.Inventory.Count(k) == 0 {
			style = tcell.StyleDefault.Foreground(tcell.ColorGray)
		}
		x = a.drawText(x, row, style, fmt.Sprintf("[%d] %s x%d  ", i+1, k, snap.Inventory.Count(k)))
	}
}

func (a *App) drawGameOver(snap engine.Snapshot) {
	lines := []string{"GAME OVER"}
	if snap.Summary != nil {
		lines = append(lines, snap.Summary.Reason, "survived "+snap.Summary.SurvivedText)
		if snap.Summary.NewBest {
			lines = append(lines, "NEW BEST!")
		}
	}
	lines = append(lines, "press r to restart")

	style := tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorRed).Bold(true)
	top := a.layout.Height/2 - len(lines)/2
	for i, line := range lines {
		a.drawText((a.layout.Width-len(line))/2, top+i, style, line)
	}
}

// drawText writes s at (x, y) and returns the column after it.
func (a *App) drawText(x, y int, style tcell.Style, s string) int {
	for _, r := range s {
		a.screen.SetContent(x, y, r, nil, style)
		x++
	}
	return x
}

func heatBar(normalized float64, width int) string {
	filled := int(normalized*float64(width) + 0.5)
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

func heatColor(normalized float64) tcell.Color {
	switch {
	case normalized >= 0.8:
		return tcell.ColorRed
	case normalized >= 0.5:
		return tcell.ColorYellow
	default:
		return tcell.ColorGreen
	}
}

func popupLook(k popup.Kind) (tcell.Style, string) {
	switch k {
	case popup.KindBomb:
		return tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorMaroon), "!! BOMB !!"
	case popup.KindCascade:
		return tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorFuchsia), "FREE PRIZES"
	default:
		return tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorSilver), "BUY NOW"
	}
}

func tokenGlyph(k powerup.Kind) rune {
	switch k {
	case powerup.KindFreeze:
		return '*'
	case powerup.KindCool:
		return '~'
	default:
		return '@'
	}
}

func tokenColor(k powerup.Kind) tcell.Color {
	switch k {
	case powerup.KindFreeze:
		return tcell.ColorAqua
	case powerup.KindCool:
		return tcell.ColorBlue
	default:
		return tcell.ColorGreen
	}
}
