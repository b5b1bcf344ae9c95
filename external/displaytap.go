// displaytap.go - read-only display/DMX export of the synthesized line

/*
Sp3ctra - real-time additive synthesis engine
Copyright (C) 2026 Ondulab
License: GPLv3 or later
*/

package external

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"sync"

	"golang.org/x/image/bmp"
)

// DisplayTap exposes a read-only "displayable" RGB triple, sized to the
// pixel count, updated with each raw line the ingest thread receives,
// before preprocessing. Updates follow the ingest rate, not the audio
// buffer rate. Optional collaborator (SFML display, DMX) (§6).
type DisplayTap struct {
	mu      sync.RWMutex
	r, g, b []byte
}

// NewDisplayTap allocates a tap for the given pixel count.
func NewDisplayTap(pixelCount int) *DisplayTap {
	return &DisplayTap{
		r: make([]byte, pixelCount),
		g: make([]byte, pixelCount),
		b: make([]byte, pixelCount),
	}
}

// Update replaces the tap's contents. Called once per received line from
// the ingest/preprocess thread; never called from the real-time audio
// callback.
func (d *DisplayTap) Update(r, g, b []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	copy(d.r, r)
	copy(d.g, g)
	copy(d.b, b)
}

// Snapshot returns copies of the current R, G, B planes for read-only
// consumption by a display or DMX collaborator.
func (d *DisplayTap) Snapshot() (r, g, b []byte) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r = append([]byte(nil), d.r...)
	g = append([]byte(nil), d.g...)
	b = append([]byte(nil), d.b...)
	return
}

// EncodeBMP renders the tap's current line as a 1-pixel-tall BMP image,
// useful for offline inspection/fixture dumps in tests. Uses
// golang.org/x/image/bmp, the pack's image codec dependency.
func (d *DisplayTap) EncodeBMP() ([]byte, error) {
	r, g, b := d.Snapshot()
	if len(r) == 0 {
		return nil, fmt.Errorf("external: empty display tap")
	}
	img := image.NewRGBA(image.Rect(0, 0, len(r), 1))
	for i := range r {
		img.Set(i, 0, color.RGBA{R: r[i], G: g[i], B: b[i], A: 255})
	}
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
