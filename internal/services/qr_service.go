package services

import (
	"bytes"
	"fmt"
	"image/color"
	"image/png"
	"strings"

	"github.com/skip2/go-qrcode"
)

const (
	DefaultQRSize = 256
	MinQRSize     = 64
	MaxQRSize     = 2048
)

// QROptions describes a QR code for a short URL. Colors are #RRGGBB.
type QROptions struct {
	Content string
	Size    int
	FgColor string
	BgColor string
}

type QRService struct{}

func NewQRService() *QRService {
	return &QRService{}
}

// GeneratePNG renders the code as a PNG image of opts.Size pixels.
func (s *QRService) GeneratePNG(opts QROptions) ([]byte, error) {
	qr, err := qrcode.New(opts.Content, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}

	qr.ForegroundColor = s.parseHexColor(opts.FgColor, color.Black)
	qr.BackgroundColor = s.parseHexColor(opts.BgColor, color.White)

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(clampQRSize(opts.Size))); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// GenerateSVG renders the code as a scalable SVG document, one path
// segment per dark module.
func (s *QRService) GenerateSVG(opts QROptions) (string, error) {
	qr, err := qrcode.New(opts.Content, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}

	bitmap := qr.Bitmap()
	n := len(bitmap)
	fg := normalizeHex(opts.FgColor, "#000000")
	bg := normalizeHex(opts.BgColor, "#FFFFFF")

	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d" shape-rendering="crispEdges">`,
		n, n, clampQRSize(opts.Size), clampQRSize(opts.Size))
	fmt.Fprintf(&sb, `<rect width="100%%" height="100%%" fill="%s"/>`, bg)
	fmt.Fprintf(&sb, `<path fill="%s" d="`, fg)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			if bitmap[y][x] {
				fmt.Fprintf(&sb, "M%d %dh1v1h-1z", x, y)
			}
		}
	}
	sb.WriteString(`"/></svg>`)
	return sb.String(), nil
}

func clampQRSize(size int) int {
	switch {
	case size <= 0:
		return DefaultQRSize
	case size < MinQRSize:
		return MinQRSize
	case size > MaxQRSize:
		return MaxQRSize
	}
	return size
}

// normalizeHex returns s when it is a well-formed #RRGGBB value, def otherwise.
func normalizeHex(s, def string) string {
	h := strings.TrimPrefix(s, "#")
	if len(h) != 6 {
		return def
	}
	for i := 0; i < len(h); i++ {
		if hexValue(h[i]) < 0 {
			return def
		}
	}
	return "#" + h
}

func (s *QRService) parseHexColor(hex string, def color.Color) color.Color {
	h := strings.TrimPrefix(normalizeHex(hex, ""), "#")
	if h == "" {
		return def
	}
	b := func(i int) uint8 {
		return uint8(hexValue(h[i])<<4 | hexValue(h[i+1]))
	}
	return color.RGBA{R: b(0), G: b(2), B: b(4), A: 255}
}

func hexValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return -1
}
