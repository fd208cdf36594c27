package encode

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// dumpMagic identifies the diagnostic raw-frame container. This is a
// minimal internal scanline format for the GBRA float32 planar dumps
// of spec.md §6 ("Raw frame dumps ... written as EXR, for validation
// against analytic references") — not a full OpenEXR codec, since no
// OpenEXR library is available to this module; it exists solely to
// round-trip a frame's linear-light values for test comparison
// against the analytic color-pipeline reference, not for interchange
// with third-party EXR viewers.
var dumpMagic = [4]byte{'A', 'E', 'X', 'R'}

// WriteEXR serializes a planar GBRA float32 frame (row-major, each
// channel plane contiguous: G then B then R then A) into buf.
func WriteEXR(w, h int, gbra []float32) ([]byte, error) {
	want := w * h * 4
	if len(gbra) != want {
		return nil, fmt.Errorf(prefix+"WriteEXR: buffer has %d floats, want %d for %dx%d", len(gbra), want, w, h)
	}
	buf := new(bytes.Buffer)
	buf.Write(dumpMagic[:])
	binary.Write(buf, binary.LittleEndian, uint32(w))
	binary.Write(buf, binary.LittleEndian, uint32(h))
	binary.Write(buf, binary.LittleEndian, gbra)
	return buf.Bytes(), nil
}

// ReadEXR parses a buffer produced by WriteEXR back into its width,
// height, and planar GBRA float32 data.
func ReadEXR(data []byte) (w, h int, gbra []float32, err error) {
	if len(data) < 12 || !bytes.Equal(data[:4], dumpMagic[:]) {
		return 0, 0, nil, fmt.Errorf(prefix + "ReadEXR: bad magic")
	}
	wu := binary.LittleEndian.Uint32(data[4:8])
	hu := binary.LittleEndian.Uint32(data[8:12])
	w, h = int(wu), int(hu)
	want := w * h * 4
	body := data[12:]
	if len(body) != want*4 {
		return 0, 0, nil, fmt.Errorf(prefix+"ReadEXR: body has %d bytes, want %d", len(body), want*4)
	}
	gbra = make([]float32, want)
	r := bytes.NewReader(body)
	if err := binary.Read(r, binary.LittleEndian, gbra); err != nil {
		return 0, 0, nil, fmt.Errorf(prefix+"ReadEXR: %w", err)
	}
	return w, h, gbra, nil
}
