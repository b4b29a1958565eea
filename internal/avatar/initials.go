package avatar

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"unicode/utf8"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DefaultSize задаёт сторону квадратной картинки профиля в пикселях.
const DefaultSize = 100

// Renderer рисует PNG с первой буквой имени на однотонном фоне.
type Renderer struct {
	Size       int
	Background color.Color
	Foreground color.Color
}

// NewRenderer возвращает рендерер с чёрной буквой на белом фоне.
func NewRenderer() *Renderer {
	return &Renderer{
		Size:       DefaultSize,
		Background: color.White,
		Foreground: color.Black,
	}
}

// Render возвращает PNG с заглавной первой буквой name.
func (r *Renderer) Render(name string) ([]byte, error) {
	first, _ := utf8.DecodeRuneInString(name)
	if first == utf8.RuneError {
		return nil, fmt.Errorf("avatar: пустое имя")
	}
	letter := strings.ToUpper(string(first))

	face := basicfont.Face7x13
	glyph := image.NewRGBA(image.Rect(0, 0, face.Width, face.Height))
	drawer := &font.Drawer{
		Dst:  glyph,
		Src:  image.NewUniform(r.Foreground),
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	drawer.DrawString(letter)

	canvas := image.NewRGBA(image.Rect(0, 0, r.Size, r.Size))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(r.Background), image.Point{}, draw.Src)

	// Глиф занимает примерно 60% высоты картинки.
	scale := r.Size * 3 / 5 / face.Height
	if scale < 1 {
		scale = 1
	}
	w, h := face.Width*scale, face.Height*scale
	x0, y0 := (r.Size-w)/2, (r.Size-h)/2
	draw.NearestNeighbor.Scale(canvas, image.Rect(x0, y0, x0+w, y0+h), glyph, glyph.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("avatar: не удалось закодировать png: %w", err)
	}
	return buf.Bytes(), nil
}
