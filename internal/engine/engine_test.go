package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/samwiegames/overheat/internal/domain/popup"
	"github.com/samwiegames/overheat/internal/domain/powerup"
)

func TestEngineAppliesInputsOnStep(t *testing.T) {
	s := newTestSession(t, quietTuning(), nil)
	p := s.popups.Add(popup.Popup{Kind: popup.KindNormal})
	s.inventory.Add(powerup.KindCool)
	e := NewEngine(s, Options{})

	e.Submit(Input{Kind: InputClosePopup, PopupID: p.ID})
	e.Submit(Input{Kind: InputConsume, Powerup: powerup.KindCool})

	if len(e.Snapshot().Popups) != 1 {
		t.Fatal("Expected inputs to wait for the next step")
	}
	e.Step(1)

	snap := e.Snapshot()
	if len(snap.Popups) != 0 {
		t.Errorf("Expected popup closed, got %d", len(snap.Popups))
	}
	// 30 - 15 cool - 1 close + 1.5 base
	if !approx(snap.Heat, 15.5) {
		t.Errorf("Expected heat 15.5, got %v", snap.Heat)
	}
	if snap.Inventory.Cool != 0 {
		t.Errorf("Expected cool spent, got %+v", snap.Inventory)
	}
}

func TestEngineSubmitNeverBlocks(t *testing.T) {
	s := newTestSession(t, quietTuning(), nil)
	e := NewEngine(s, Options{InputBuffer: 2})

	accepted := 0
	for i := 0; i < 5; i++ {
		if e.Submit(Input{Kind: InputCatch}) {
			accepted++
		}
	}
	if accepted != 2 {
		t.Errorf("Expected 2 accepted inputs, got %d", accepted)
	}
	e.Step(0.1)
	if !e.Submit(Input{Kind: InputCatch}) {
		t.Error("Expected queue drained by Step")
	}
}

func TestEngineRestart(t *testing.T) {
	tun := quietTuning()
	tun.StartHeat = 99
	s := newTestSession(t, tun, nil)
	e := NewEngine(s, Options{})

	e.Step(1)
	first := e.Snapshot()
	if !first.GameOver || first.Summary == nil {
		t.Fatalf("Expected game over snapshot, got %+v", first)
	}

	e.Submit(Input{Kind: InputRestart})
	e.Step(0)
	snap := e.Snapshot()
	if snap.GameOver || snap.SessionID == first.SessionID {
		t.Errorf("Expected a new running session, got %+v", snap)
	}
	if snap.BestText != "00:01" {
		t.Errorf("Expected best 00:01 carried over, got %s", snap.BestText)
	}
}

func TestEngineConcurrentReaders(t *testing.T) {
	s := newTestSession(t, DefaultTuning(), nil)
	e := NewEngine(s, Options{})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_ = e.Snapshot()
				e.Submit(Input{Kind: InputCatch})
			}
		}()
	}
	for i := 0; i < 200; i++ {
		e.Step(1.0 / 60)
	}
	wg.Wait()
}

func TestEngineTickerDrivesSession(t *testing.T) {
	s := newTestSession(t, DefaultTuning(), nil)
	e := NewEngine(s, Options{TickRate: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	e.Start(ctx)
	defer cancel()

	deadline := time.Now().Add(2 * time.Second)
	for e.Snapshot().Elapsed == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Expected the ticker to advance the session")
		}
		time.Sleep(10 * time.Millisecond)
	}
	e.Stop()
	e.Stop()
	if e.Ticker().TickNumber() == 0 {
		t.Error("Expected tick count to advance")
	}
}

func TestEngineStopFlushesStoreWrites(t *testing.T) {
	tun := quietTuning()
	tun.StartHeat = 99
	store := &fakeStore{}
	s := newTestSession(t, tun, store)
	e := NewEngine(s, Options{TickRate: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e.Start(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for !e.Snapshot().GameOver {
		if time.Now().After(deadline) {
			t.Fatal("Expected the session to overheat")
		}
		time.Sleep(10 * time.Millisecond)
	}
	e.Stop()

	if len(store.writes) != 1 {
		t.Errorf("Expected the best time written by Stop, got %v", store.writes)
	}
}
