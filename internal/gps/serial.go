// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	serial "github.com/jacobsa/go-serial/serial"
)

// maxLineLen bounds how much unterminated input is buffered before it is
// thrown away as noise. NMEA sentences are < 82 chars.
const maxLineLen = 4096

// SerialConfig describes the GPS serial link.
type SerialConfig struct {
	Port        string
	Baud        int
	ReadTimeout time.Duration
}

// OpenSerial opens the receiver's port in timed-read mode: a read returns
// whatever arrived within ReadTimeout, possibly nothing, so a silent module
// cannot stall the caller.
func OpenSerial(cfg SerialConfig) (io.ReadWriteCloser, error) {
	// termios VTIME has 100 ms resolution.
	timeoutMS := uint(cfg.ReadTimeout / time.Millisecond)
	if timeoutMS < 100 {
		timeoutMS = 100
	}

	opts := serial.OpenOptions{
		PortName:              cfg.Port,
		BaudRate:              uint(cfg.Baud),
		DataBits:              8,
		StopBits:              1,
		ParityMode:            serial.PARITY_NONE,
		MinimumReadSize:       0,
		InterCharacterTimeout: timeoutMS,
	}

	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("gps: open serial %s at %d baud: %w", cfg.Port, cfg.Baud, err)
	}
	return port, nil
}

// LineReader splits a byte stream into lines without ever waiting for one to
// complete. Each ReadLine performs at most one Read on the underlying reader.
type LineReader struct {
	r     io.Reader
	buf   []byte
	chunk []byte

	dropped int
}

// NewLineReader wraps r. r should itself return promptly (timed serial read,
// file, pipe with data).
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{
		r:     r,
		buf:   make([]byte, 0, 256),
		chunk: make([]byte, 256),
	}
}

// ReadLine returns the next complete line without its line terminator. It
// returns nil, nil when no complete line is available yet; io.EOF from the
// underlying reader is treated the same way. Other read errors are returned
// as-is and buffered data is kept for the next call.
func (lr *LineReader) ReadLine() ([]byte, error) {
	if line := lr.next(); line != nil {
		return line, nil
	}

	n, err := lr.r.Read(lr.chunk)
	if n > 0 {
		lr.buf = append(lr.buf, lr.chunk[:n]...)
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	if line := lr.next(); line != nil {
		return line, nil
	}
	if len(lr.buf) > maxLineLen {
		lr.buf = lr.buf[:0]
		lr.dropped++
	}
	return nil, nil
}

// Dropped reports how many overlong unterminated fragments were discarded.
func (lr *LineReader) Dropped() int {
	return lr.dropped
}

func (lr *LineReader) next() []byte {
	idx := bytes.IndexByte(lr.buf, '\n')
	if idx == -1 {
		return nil
	}
	line := make([]byte, idx)
	copy(line, lr.buf[:idx])
	line = bytes.TrimSuffix(line, []byte{'\r'})
	lr.buf = append(lr.buf[:0], lr.buf[idx+1:]...)
	return line
}
