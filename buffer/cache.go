package buffer

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/opd-ai/soundsync/limits"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"
)

// Digest identifies encoded audio by content.
type Digest [blake2b.Size256]byte

func (d Digest) String() string {
	return hex.EncodeToString(d[:8])
}

// Cache shares decoded buffers between sources that load the same bytes.
type Cache struct {
	mu      sync.Mutex
	entries map[Digest]*Buffer
	paths   map[string]Digest
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[Digest]*Buffer),
		paths:   make(map[string]Digest),
	}
}

// LoadFile reads and decodes path, returning the cached buffer when the same
// content was decoded before. Only .wav files are supported.
func (c *Cache) LoadFile(path string) (*Buffer, error) {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".wav" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := limits.ValidateEncodedFile(info.Size()); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	buf, err := c.Decode(data, func(data []byte) (*Buffer, error) {
		b, err := DecodeWAV(bytes.NewReader(data))
		if err == nil {
			b.path = path
		}
		return b, err
	})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	c.mu.Lock()
	c.paths[path] = Sum(data)
	c.mu.Unlock()
	return buf, nil
}

// Decode returns the cached buffer for data, decoding it with decode on a miss.
func (c *Cache) Decode(data []byte, decode func([]byte) (*Buffer, error)) (*Buffer, error) {
	if len(data) == 0 {
		return nil, ErrEmptyData
	}
	digest := Sum(data)

	c.mu.Lock()
	if buf, ok := c.entries[digest]; ok {
		c.mu.Unlock()
		logrus.WithFields(logrus.Fields{
			"function": "Cache.Decode",
			"digest":   digest.String(),
		}).Debug("Buffer cache hit")
		return buf, nil
	}
	c.mu.Unlock()

	buf, err := decode(data)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[digest]; ok {
		return existing, nil
	}
	c.entries[digest] = buf

	logrus.WithFields(logrus.Fields{
		"function": "Cache.Decode",
		"digest":   digest.String(),
		"frames":   buf.Len(),
	}).Debug("Buffer cached")
	return buf, nil
}

// Lookup returns the buffer previously loaded from path.
func (c *Cache) Lookup(path string) (*Buffer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	digest, ok := c.paths[path]
	if !ok {
		return nil, false
	}
	buf, ok := c.entries[digest]
	return buf, ok
}

// Len returns the number of distinct buffers held.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Sum returns the content digest of data.
func Sum(data []byte) Digest {
	return blake2b.Sum256(data)
}
