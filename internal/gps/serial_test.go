// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkReader hands out one scripted chunk (or error) per Read.
type chunkReader struct {
	steps []any
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(c.steps) == 0 {
		return 0, io.EOF
	}
	step := c.steps[0]
	c.steps = c.steps[1:]
	switch v := step.(type) {
	case string:
		return copy(p, v), nil
	case error:
		return 0, v
	}
	return 0, nil
}

func TestLineReader_SplitsAcrossReads(t *testing.T) {
	lr := NewLineReader(&chunkReader{steps: []any{"$GPGGA,1", "23519\r\n$GPRMC\n"}})

	line, err := lr.ReadLine()
	require.NoError(t, err)
	assert.Nil(t, line, "partial line must not be returned")

	line, err = lr.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "$GPGGA,123519", string(line))

	// Second line already buffered; no read needed.
	line, err = lr.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "$GPRMC", string(line))

	line, err = lr.ReadLine()
	require.NoError(t, err)
	assert.Nil(t, line)
}

func TestLineReader_EmptyLineIsNotNoData(t *testing.T) {
	lr := NewLineReader(strings.NewReader("\r\n"))

	line, err := lr.ReadLine()
	require.NoError(t, err)
	require.NotNil(t, line)
	assert.Len(t, line, 0)
}

func TestLineReader_ReadErrorKeepsBuffer(t *testing.T) {
	boom := errors.New("framing error")
	lr := NewLineReader(&chunkReader{steps: []any{"$GPGGA", boom, ",1\n"}})

	_, err := lr.ReadLine()
	require.NoError(t, err)

	_, err = lr.ReadLine()
	assert.ErrorIs(t, err, boom)

	line, err := lr.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "$GPGGA,1", string(line))
}

func TestLineReader_DropsOverlongGarbage(t *testing.T) {
	steps := make([]any, 0, 20)
	for i := 0; i < 20; i++ {
		steps = append(steps, strings.Repeat("x", 256))
	}
	steps = append(steps, "\n$GPRMC\n")
	lr := NewLineReader(&chunkReader{steps: steps})

	var got []string
	for i := 0; i < 30; i++ {
		line, err := lr.ReadLine()
		require.NoError(t, err)
		if line != nil {
			got = append(got, string(line))
		}
	}

	assert.Equal(t, 1, lr.Dropped())
	require.NotEmpty(t, got)
	assert.Equal(t, "$GPRMC", got[len(got)-1])
}
