package leds

import (
	"context"
	"testing"
	"time"
)

func TestRunStatic_Terminal(t *testing.T) {
	err := RunStatic(context.Background(), &StaticParams{
		Backend: "terminal",
		Count:   8,
		Order:   "rgb",
		Color:   "#ffd700",
		From:    2,
		To:      -1,
	})
	if err != nil {
		t.Fatalf("RunStatic: %v", err)
	}
}

func TestRunStatic_BadColor(t *testing.T) {
	err := RunStatic(context.Background(), &StaticParams{Backend: "terminal", Count: 8, Color: "gold", From: -1})
	if err == nil {
		t.Error("expected error for unparseable color")
	}
}

func TestStrip_NoneBackendHasNothingToDrive(t *testing.T) {
	s := Strip{Backend: "none", Count: 8}
	if _, err := s.open(context.Background()); err == nil {
		t.Error("expected error for none backend")
	}
}

func TestRunFlicker_StopsAfterFor(t *testing.T) {
	start := time.Now()
	err := RunFlicker(context.Background(), &FlickerParams{Backend: "terminal", Count: 32, Order: "bgr", FPS: 30, Sigma: 0.075, For: 1})
	if err != nil {
		t.Fatalf("RunFlicker: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("flicker ran for %v", elapsed)
	}
}

func TestRunRainbow_CancelIsNotAnError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := RunRainbow(ctx, &RainbowParams{Backend: "terminal", Count: 32, Order: "bgr", Seconds: 10, Frequency: 10})
	if err != nil {
		t.Errorf("RunRainbow: %v", err)
	}
}
