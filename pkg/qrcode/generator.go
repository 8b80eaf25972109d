package qrcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

const (
	DefaultSize = 300
	dir         = "qr"
)

// Saver persists generated bytes and returns the public web path.
type Saver interface {
	Save(ctx context.Context, relPath string, data []byte) (string, error)
}

// Artifact is a stored tracking code.
type Artifact struct {
	WebPath string
	PNG     []byte
}

type Generator struct {
	store Saver
	size  int
}

func NewGenerator(store Saver, size int) (*Generator, error) {
	if store == nil {
		return nil, errors.New("qr code store is required")
	}
	if size <= 0 {
		size = DefaultSize
	}
	return &Generator{store: store, size: size}, nil
}

// MakeTrackingArtifact encodes content as a QR PNG and stores it as
// qr/qr_{orderID}.png.
func (g *Generator) MakeTrackingArtifact(ctx context.Context, orderID int64, content string) (Artifact, error) {
	data, err := Encode(content, g.size)
	if err != nil {
		return Artifact{}, err
	}
	webPath, err := g.store.Save(ctx, FileName(orderID), data)
	if err != nil {
		return Artifact{}, fmt.Errorf("store qr code: %w", err)
	}
	return Artifact{WebPath: webPath, PNG: data}, nil
}

// FileName is the path of an order's tracking code relative to the static root.
func FileName(orderID int64) string {
	return fmt.Sprintf("%s/qr_%d.png", dir, orderID)
}

// Encode renders content as a square PNG of the given pixel size.
func Encode(content string, size int) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errors.New("qr content is required")
	}
	code, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	scaled, err := barcode.Scale(code, size, size)
	if err != nil {
		return nil, fmt.Errorf("scale qr: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("png encode qr: %w", err)
	}
	return buf.Bytes(), nil
}

// ScanURL builds the link printed in an order's tracking code.
func ScanURL(baseURL string, orderID int64) string {
	return fmt.Sprintf("%s/scan/%d", strings.TrimRight(baseURL, "/"), orderID)
}
