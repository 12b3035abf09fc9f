// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

package wire

import (
	"encoding/binary"
	"io"

	"github.com/samber/oops"
)

// MaxFrameSize bounds a single message to guard against a misbehaving or
// malicious plugin claiming an unbounded length prefix.
const MaxFrameSize = 64 << 20 // 64 MiB

// WriteFrame writes one length-prefixed message to w: a 4-byte
// big-endian length followed by exactly that many bytes of payload.
// Framing is a transport concern, not the codec's — callers pass the
// already-encoded bytes from EncodeHostToPlugin/EncodePluginToHost.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return oops.Errorf("frame payload of %d bytes exceeds maximum of %d", len(payload), MaxFrameSize)
	}
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload))) //nolint:gosec // bounded by MaxFrameSize above
	if _, err := w.Write(header[:]); err != nil {
		return oops.Wrapf(err, "write frame header")
	}
	if _, err := w.Write(payload); err != nil {
		return oops.Wrapf(err, "write frame payload")
	}
	return nil
}

// ReadFrame reads one length-prefixed message from r. It returns io.EOF
// unmodified when the stream ends cleanly before a header is read.
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, oops.Wrapf(err, "read frame header")
	}
	length := binary.BigEndian.Uint32(header[:])
	if length > MaxFrameSize {
		return nil, oops.Errorf("frame claims %d bytes, exceeds maximum of %d", length, MaxFrameSize)
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, oops.Wrapf(err, "read frame payload of %d bytes", length)
	}
	return payload, nil
}
