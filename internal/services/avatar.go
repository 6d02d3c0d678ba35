package services

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"

	"github.com/studypulse/backend/internal/logger"
	"github.com/studypulse/backend/internal/types"
)

// AvatarService renders identicon-style avatars into the local media
// directory. The returned URL is relative to the /media static mount.
type AvatarService interface {
	CreateStudentAvatar(ctx context.Context, student *types.Student) (string, error)
	SetStudentAvatarFromImage(ctx context.Context, student *types.Student, raw []byte) (string, error)
}

type avatarService struct {
	log      *logger.Logger
	mediaDir string

	bgColors   []color.NRGBA
	colorByHex map[string]color.NRGBA

	fontFace font.Face
}

var defaultAvatarColors = []color.NRGBA{
	{R: 0x4C, G: 0x6E, B: 0xF5, A: 0xFF},
	{R: 0x12, G: 0xB8, B: 0x86, A: 0xFF},
	{R: 0xF0, G: 0x8C, B: 0x00, A: 0xFF},
	{R: 0xE6, G: 0x4E, B: 0x80, A: 0xFF},
	{R: 0x7A, G: 0x5C, B: 0xF0, A: 0xFF},
	{R: 0x0C, G: 0xA6, B: 0x78, A: 0xFF},
}

func NewAvatarService(baseLog *logger.Logger, mediaDir string) (AvatarService, error) {
	serviceLog := baseLog.With("service", "AvatarService")

	if strings.TrimSpace(mediaDir) == "" {
		return nil, fmt.Errorf("media dir is empty")
	}
	if err := os.MkdirAll(filepath.Join(mediaDir, "avatar"), 0o755); err != nil {
		return nil, fmt.Errorf("create avatar dir: %w", err)
	}

	bgColors := defaultAvatarColors
	if colorsJSONPath := strings.TrimSpace(os.Getenv("AVATAR_COLORS_JSON_PATH")); colorsJSONPath != "" {
		loaded, err := loadColorsFromFile(colorsJSONPath)
		if err != nil {
			return nil, fmt.Errorf("could not load avatar colors: %w", err)
		}
		if len(loaded) > 0 {
			bgColors = loaded
		}
	}
	colorByHex := make(map[string]color.NRGBA, len(bgColors))
	for _, c := range bgColors {
		colorByHex[strings.ToUpper(nrgbaToHex(c))] = c
	}

	fontPath := strings.TrimSpace(os.Getenv("AVATAR_FONT"))
	if fontPath == "" {
		return nil, fmt.Errorf("Env var AVATAR_FONT is empty")
	}
	serviceLog.Info("Loading avatar font", "font", fontPath)
	face, err := loadFontFace(fontPath, 206)
	if err != nil {
		return nil, fmt.Errorf("could not load avatar font: %w", err)
	}

	return &avatarService{
		log:        serviceLog,
		mediaDir:   mediaDir,
		bgColors:   bgColors,
		colorByHex: colorByHex,
		fontFace:   face,
	}, nil
}

func (as *avatarService) CreateStudentAvatar(ctx context.Context, student *types.Student) (string, error) {
	if student == nil || student.ID == uuid.Nil {
		return "", fmt.Errorf("student required")
	}
	buf, err := as.renderInitialsAvatar(student)
	if err != nil {
		return "", err
	}
	return as.writeAvatar(student, buf)
}

func (as *avatarService) SetStudentAvatarFromImage(ctx context.Context, student *types.Student, raw []byte) (string, error) {
	if student == nil || student.ID == uuid.Nil {
		return "", fmt.Errorf("student required")
	}
	processed, err := processUploadedAvatar(raw, 512)
	if err != nil {
		return "", err
	}
	return as.writeAvatar(student, processed)
}

// writeAvatar persists the PNG under a versioned key so browsers never
// serve a stale cached avatar, then best-effort removes the prior file.
func (as *avatarService) writeAvatar(student *types.Student, buf bytes.Buffer) (string, error) {
	newKey := fmt.Sprintf("avatar/%s_%d.png", student.ID.String(), time.Now().UnixNano())
	fullPath := filepath.Join(as.mediaDir, filepath.FromSlash(newKey))
	if err := os.WriteFile(fullPath, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write avatar file: %w", err)
	}

	oldURL := strings.TrimSpace(student.AvatarURL)
	newURL := "/media/" + newKey
	if oldKey, ok := strings.CutPrefix(oldURL, "/media/"); ok && oldKey != newKey {
		if err := os.Remove(filepath.Join(as.mediaDir, filepath.FromSlash(oldKey))); err != nil && !os.IsNotExist(err) {
			as.log.Warn("failed to delete old avatar (ignored)", "oldKey", oldKey, "error", err)
		}
	}
	return newURL, nil
}

func (as *avatarService) renderInitialsAvatar(student *types.Student) (bytes.Buffer, error) {
	const size = 512

	dc := gg.NewContext(size, size)
	dc.DrawCircle(float64(size)/2, float64(size)/2, float64(size)/2)
	dc.Clip()

	base := as.pickColor(student.ID)
	dc.SetColor(base)
	dc.DrawRectangle(0, 0, float64(size), float64(size))
	dc.Fill()

	initials := computeInitials(student.FullName, student.Username)

	dc.SetFontFace(as.fontFace)
	tw, th := dc.MeasureString(initials)
	cx, cy := float64(size)/2, float64(size)/2

	dc.SetColor(color.White)
	dc.DrawString(initials, cx-(tw/2)+5, cy+(th/2)-10)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return buf, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf, nil
}

// pickColor is deterministic per student so regenerated avatars keep the
// same background.
func (as *avatarService) pickColor(studentID uuid.UUID) color.NRGBA {
	var sum int
	for _, b := range studentID {
		sum += int(b)
	}
	return as.bgColors[sum%len(as.bgColors)]
}

func processUploadedAvatar(raw []byte, size int) (bytes.Buffer, error) {
	var out bytes.Buffer

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return out, fmt.Errorf("decode image: %w", err)
	}

	// Center-crop to square
	b := img.Bounds()
	w := b.Dx()
	h := b.Dy()
	side := w
	if h < w {
		side = h
	}
	x0 := b.Min.X + (w-side)/2
	y0 := b.Min.Y + (h-side)/2

	cropRect := image.Rect(0, 0, side, side)
	cropped := image.NewRGBA(cropRect)
	draw.Draw(cropped, cropRect, img, image.Point{X: x0, Y: y0}, draw.Src)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), cropped, cropped.Bounds(), draw.Over, nil)

	dc := gg.NewContext(size, size)
	dc.DrawCircle(float64(size)/2, float64(size)/2, float64(size)/2)
	dc.Clip()
	dc.DrawImage(dst, 0, 0)

	if err := dc.EncodePNG(&out); err != nil {
		return out, fmt.Errorf("encode png: %w", err)
	}
	return out, nil
}

func computeInitials(fullName, username string) string {
	fields := strings.Fields(fullName)
	switch {
	case len(fields) >= 2:
		return strings.ToUpper(fields[0][:1] + fields[1][:1])
	case len(fields) == 1:
		return strings.ToUpper(fields[0][:1])
	case username != "":
		return strings.ToUpper(username[:1])
	default:
		return "?"
	}
}

func loadColorsFromFile(jsonPath string) ([]color.NRGBA, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("read file error: %w", err)
	}
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("json unmarshal error: %w", err)
	}
	colors := make([]color.NRGBA, 0, len(raw))
	for _, s := range raw {
		r, g, b, err := parseHexRGB(s)
		if err != nil {
			return nil, fmt.Errorf("invalid color %q: %w", s, err)
		}
		colors = append(colors, color.NRGBA{R: r, G: g, B: b, A: 0xFF})
	}
	return colors, nil
}

func parseHexRGB(s string) (r, g, b uint8, err error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return 0, 0, 0, fmt.Errorf("expected 6 hex chars")
	}
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid hex")
	}
	return raw[0], raw[1], raw[2], nil
}

func nrgbaToHex(c color.NRGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

func loadFontFace(fontPath string, size float64) (font.Face, error) {
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file: %w", err)
	}
	parsedFont, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	face := truetype.NewFace(parsedFont, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	return face, nil
}
