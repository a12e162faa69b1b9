package device

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Pump reads blockBytes from r every interval and writes them to w until
// ctx is done. Reading paces the renderer at real time when blockBytes
// holds interval worth of audio.
func Pump(ctx context.Context, r io.Reader, w io.Writer, blockBytes int, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	block := make([]byte, blockBytes)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := io.ReadFull(r, block); err != nil {
				return fmt.Errorf("pump read: %w", err)
			}
			if _, err := w.Write(block); err != nil {
				return fmt.Errorf("%w: %v", ErrOutputClosed, err)
			}
		}
	}
}

// BlockBytes returns the size of interval worth of float32 stereo audio at
// sampleRate.
func BlockBytes(sampleRate uint32, interval time.Duration) int {
	frames := int(int64(sampleRate) * int64(interval) / int64(time.Second))
	return max(frames, 1) * BytesPerFrame
}
