// internal/stream/decoder.go
package stream

import (
	"bufio"
	"io"
	"strings"
)

const (
	dataPrefix   = "data: "
	doneSentinel = "[DONE]"
)

// FrameDecoder turns a raw server-sent-event byte stream into discrete
// event payloads. Blank lines and lines without the data prefix are
// skipped; the terminal [DONE] sentinel ends the stream without being
// yielded. Payload content is not interpreted here.
type FrameDecoder struct {
	scanner *bufio.Scanner
}

// NewFrameDecoder wraps the given reader. The reader is typically a
// streaming HTTP response body; chunk boundaries are invisible to callers
// because line buffering happens inside the scanner.
func NewFrameDecoder(r io.Reader) *FrameDecoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &FrameDecoder{scanner: scanner}
}

// Next returns the next event payload. It returns io.EOF when the
// underlying stream ends or the [DONE] sentinel arrives, and any transport
// read error otherwise.
func (d *FrameDecoder) Next() (string, error) {
	for d.scanner.Scan() {
		line := d.scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}
		payload := line[len(dataPrefix):]
		if strings.TrimSpace(payload) == doneSentinel {
			return "", io.EOF
		}
		return payload, nil
	}
	if err := d.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
