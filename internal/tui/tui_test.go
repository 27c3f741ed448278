package tui

import (
	"strings"
	"sync"
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/samwiegames/overheat/internal/domain/popup"
	"github.com/samwiegames/overheat/internal/domain/powerup"
	"github.com/samwiegames/overheat/internal/engine"
)

type fakeGame struct {
	mu     sync.Mutex
	inputs []engine.Input
	snap   engine.Snapshot
}

func (g *fakeGame) Submit(in engine.Input) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inputs = append(g.inputs, in)
	return true
}

func (g *fakeGame) Snapshot() engine.Snapshot { return g.snap }

func newTestApp(t *testing.T, game *fakeGame) (*App, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(screen.Fini)
	screen.SetSize(128, 76)
	return New(screen, game, engine.DefaultTuning(), nil), screen
}

func TestPopupRectScalesAreaToField(t *testing.T) {
	l := NewLayout(128, 76, engine.DefaultTuning())
	if f := l.Field(); f != (Rect{X: 0, Y: 1, W: 128, H: 72}) {
		t.Fatalf("Unexpected field %+v", f)
	}

	r := l.PopupRect(popup.Popup{HalfWidth: 160, HalfHeight: 110})
	if r != (Rect{X: 48, Y: 26, W: 32, H: 22}) {
		t.Errorf("Expected a centred 32x22 box, got %+v", r)
	}

	// Positive y is up.
	up := l.PopupRect(popup.Popup{Position: popup.Position{Y: 200}, HalfWidth: 10, HalfHeight: 10})
	if up.Y >= r.Y {
		t.Errorf("Expected a popup at y=200 above the centre, got %+v", up)
	}

	tiny := l.PopupRect(popup.Popup{HalfWidth: 1, HalfHeight: 1})
	if tiny.W != 3 || tiny.H != 3 {
		t.Errorf("Expected a 3x3 minimum, got %+v", tiny)
	}
}

func TestPopupAtPrefersTopmost(t *testing.T) {
	l := NewLayout(128, 76, engine.DefaultTuning())
	popups := []popup.Popup{
		{ID: 4, HalfWidth: 160, HalfHeight: 110},
		{ID: 2, HalfWidth: 200, HalfHeight: 150},
	}
	if id, ok := l.PopupAt(popups, 64, 37); !ok || id != 4 {
		t.Errorf("Expected popup 4, got %v %v", id, ok)
	}
	if id, ok := l.PopupAt(popups, 45, 37); !ok || id != 2 {
		t.Errorf("Expected popup 2 outside the smaller box, got %v %v", id, ok)
	}
	if _, ok := l.PopupAt(popups, 0, 1); ok {
		t.Error("Expected no popup in the corner")
	}
}

func TestLaneColumns(t *testing.T) {
	l := NewLayout(101, 30, engine.DefaultTuning())
	span := engine.DefaultTuning().LaneWidth/2 + engine.DefaultTuning().LaneEdgeMargin

	if c := l.LaneColumn(span); c != 100 {
		t.Errorf("Expected tokens to enter at the right edge, got %d", c)
	}
	if c := l.LaneColumn(-span); c != 0 {
		t.Errorf("Expected tokens to leave at the left edge, got %d", c)
	}
	lo, hi := l.ZoneColumns()
	if lo >= 50 || hi <= 50 {
		t.Errorf("Expected the zone around the centre, got [%d, %d]", lo, hi)
	}
}

func TestKeyInput(t *testing.T) {
	tests := []struct {
		key  tcell.Key
		r    rune
		quit bool
		ok   bool
		want engine.Input
	}{
		{tcell.KeyRune, ' ', false, true, engine.Input{Kind: engine.InputCatch, ActorID: engine.ActorPlayer}},
		{tcell.KeyRune, 'r', false, true, engine.Input{Kind: engine.InputRestart, ActorID: engine.ActorPlayer}},
		{tcell.KeyRune, '1', false, true, engine.Input{Kind: engine.InputConsume, ActorID: engine.ActorPlayer, Powerup: powerup.KindFreeze}},
		{tcell.KeyRune, '3', false, true, engine.Input{Kind: engine.InputConsume, ActorID: engine.ActorPlayer, Powerup: powerup.KindClear}},
		{tcell.KeyRune, 'z', false, false, engine.Input{}},
		{tcell.KeyRune, 'q', true, false, engine.Input{}},
		{tcell.KeyEscape, 0, true, false, engine.Input{}},
		{tcell.KeyEnter, 0, false, false, engine.Input{}},
	}
	for _, tt := range tests {
		in, quit, ok := keyInput(tt.key, tt.r)
		if quit != tt.quit || ok != tt.ok {
			t.Errorf("keyInput(%v, %q): expected quit=%v ok=%v, got %v %v", tt.key, tt.r, tt.quit, tt.ok, quit, ok)
			continue
		}
		if ok && in != tt.want {
			t.Errorf("keyInput(%v, %q): expected %+v, got %+v", tt.key, tt.r, tt.want, in)
		}
	}
}

func TestClickClosesPopupUnderCursor(t *testing.T) {
	game := &fakeGame{snap: engine.Snapshot{Popups: []popup.Popup{{ID: 9, Kind: popup.KindBomb, HalfWidth: 160, HalfHeight: 110}}}}
	app, _ := newTestApp(t, game)
	app.draw(game.Snapshot())

	app.click(0, 1)
	app.click(64, 37)
	if len(game.inputs) != 1 || game.inputs[0].Kind != engine.InputClosePopup || game.inputs[0].PopupID != 9 {
		t.Errorf("Expected a single close of popup 9, got %+v", game.inputs)
	}
}

func TestDrawRendersStatusLaneAndGameOver(t *testing.T) {
	game := &fakeGame{snap: engine.Snapshot{
		HeatNormalized: 0.9,
		ElapsedText:    "01:05",
		BestText:       "02:00",
		Token:          &engine.TokenView{Kind: powerup.KindFreeze, Opacity: 1},
		GameOver:       true,
		Summary:        &engine.GameOverSummary{Reason: "your pc overheated!", SurvivedText: "01:05"},
	}}
	app, screen := newTestApp(t, game)
	app.draw(game.Snapshot())

	if r, _, _, _ := screen.GetContent(0, 0); r != 'O' {
		t.Errorf("Expected the status bar at row 0, got %q", r)
	}
	if r, _, _, _ := screen.GetContent(app.layout.LaneColumn(0), app.layout.LaneRow()); r != '*' {
		t.Errorf("Expected the freeze token at the lane centre, got %q", r)
	}

	found := false
	for y := 0; y < 76 && !found; y++ {
		line := make([]rune, 0, 128)
		for x := 0; x < 128; x++ {
			r, _, _, _ := screen.GetContent(x, y)
			line = append(line, r)
		}
		found = strings.Contains(string(line), "GAME OVER")
	}
	if !found {
		t.Error("Expected the game over banner")
	}
}
