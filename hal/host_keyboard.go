//go:build cgo

package hal

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// hostInput translates ebiten's polled input state into box events.
type hostInput struct {
	lastX, lastY int
}

var keyMap = []struct {
	key  ebiten.Key
	code KeyCode
}{
	{ebiten.KeyArrowUp, KeyUp},
	{ebiten.KeyArrowDown, KeyDown},
	{ebiten.KeyArrowLeft, KeyLeft},
	{ebiten.KeyArrowRight, KeyRight},
	{ebiten.KeyEnter, KeyEnter},
	{ebiten.KeyEscape, KeyEscape},
}

func (in *hostInput) poll(box *Box) {
	for _, r := range ebiten.AppendInputChars(nil) {
		if r == ' ' {
			box.SendKey(KeyEvent{Code: KeySpace, Press: true, Rune: r})
			continue
		}
		box.SendKey(KeyEvent{Press: true, Rune: r})
	}
	for _, k := range keyMap {
		if inpututil.IsKeyJustPressed(k.key) {
			box.SendKey(KeyEvent{Code: k.code, Press: true})
		}
		if inpututil.IsKeyJustReleased(k.key) {
			box.SendKey(KeyEvent{Code: k.code, Press: false})
		}
	}

	x, y := ebiten.CursorPosition()
	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		box.SendPointer(PointerEvent{Kind: PointerDown, X: float32(x), Y: float32(y)})
	case inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft):
		box.SendPointer(PointerEvent{Kind: PointerUp, X: float32(x), Y: float32(y)})
	case x != in.lastX || y != in.lastY:
		box.SendPointer(PointerEvent{Kind: PointerMove, X: float32(x), Y: float32(y)})
	}
	in.lastX, in.lastY = x, y

	if _, wy := ebiten.Wheel(); wy != 0 {
		box.SendPointer(PointerEvent{Kind: PointerWheel, X: float32(x), Y: float32(y), WheelY: float32(wy)})
	}
}
