package input

import (
	"testing"

	"github.com/veandco/go-sdl2/sdl"
)

func TestHeldKeysPersistAcrossFrames(t *testing.T) {
	in := New()
	in.BeginFrame()
	in.Process(Event{Type: EventKeyDown, Key: sdl.SCANCODE_W})

	if !in.IsKeyPressed(sdl.SCANCODE_W) || !in.IsKeyDown(sdl.SCANCODE_W) {
		t.Fatal("W should be pressed and held")
	}

	in.BeginFrame()
	if in.IsKeyPressed(sdl.SCANCODE_W) {
		t.Error("pressed is per frame")
	}
	if !in.IsKeyDown(sdl.SCANCODE_W) {
		t.Error("held survives the frame")
	}

	in.Process(Event{Type: EventKeyUp, Key: sdl.SCANCODE_W})
	if in.IsKeyDown(sdl.SCANCODE_W) {
		t.Error("released key still held")
	}
}

func TestRepeatIsNotAPress(t *testing.T) {
	in := New()
	in.Process(Event{Type: EventKeyDown, Key: sdl.SCANCODE_1, Repeat: true})
	if in.IsKeyPressed(sdl.SCANCODE_1) {
		t.Error("auto-repeat counted as a press")
	}
}

func TestMouseAccumulates(t *testing.T) {
	in := New()
	in.BeginFrame()
	in.Process(Event{Type: EventMouseMove, RelX: 3, RelY: -2})
	in.Process(Event{Type: EventMouseMove, RelX: 1, RelY: -1})
	in.Process(Event{Type: EventMouseWheel, WheelY: 1})
	in.Process(Event{Type: EventMouseWheel, WheelY: 2})

	dx, dy := in.MouseDelta()
	if dx != 4 || dy != -3 {
		t.Errorf("delta = (%v, %v), want (4, -3)", dx, dy)
	}
	if in.Wheel() != 3 {
		t.Errorf("wheel = %v, want 3", in.Wheel())
	}

	in.BeginFrame()
	dx, dy = in.MouseDelta()
	if dx != 0 || dy != 0 || in.Wheel() != 0 {
		t.Error("motion not reset per frame")
	}
}

func TestButtonsAndQuit(t *testing.T) {
	in := New()
	in.Process(Event{Type: EventMouseDown, Button: sdl.BUTTON_LEFT})
	if !in.IsButtonDown(sdl.BUTTON_LEFT) {
		t.Error("left button not held")
	}
	in.Process(Event{Type: EventMouseUp, Button: sdl.BUTTON_LEFT})
	if in.IsButtonDown(sdl.BUTTON_LEFT) {
		t.Error("left button still held")
	}

	if in.Quit() {
		t.Fatal("quit before any quit event")
	}
	in.Process(Event{Type: EventQuit})
	if !in.Quit() {
		t.Error("quit event not recorded")
	}
}
