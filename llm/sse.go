package llm

import (
	"errors"
	"io"
	"strings"
	"unicode/utf8"
)

const (
	// DataPrefix marks a content line in the chat stream
	DataPrefix = "data: "
	// DoneSentinel may appear as a data payload; it carries no text and does not end the read loop
	DoneSentinel = "[DONE]"

	chunkSize = 4096
)

// Ingestor turns a chunked response body into successive full-content updates
// for a single assistant message.
//
// Every Read is treated as one chunk: it is decoded, split on "\n", and each
// line carrying Prefix contributes its remainder to the accumulated text. A
// line that straddles two chunks is not reassembled.
type Ingestor struct {
	Prefix   string
	Sentinel string
}

// NewIngestor returns an ingestor for the "data: " / "[DONE]" wire format
func NewIngestor() *Ingestor {
	return &Ingestor{Prefix: DataPrefix, Sentinel: DoneSentinel}
}

// Ingest reads r until it is exhausted. After every fragment, onUpdate receives
// id and the entire text accumulated so far. It returns the final text and the
// first read error other than io.EOF.
func (in *Ingestor) Ingest(r io.Reader, id string, onUpdate func(id, content string)) (string, error) {
	var acc strings.Builder
	var pending []byte
	buf := make([]byte, chunkSize)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			var text string
			text, pending = decodeChunk(pending, buf[:n])
			in.consumeChunk(text, id, &acc, onUpdate)
		}
		if errors.Is(err, io.EOF) {
			if len(pending) > 0 {
				// Truncated rune at end of body, decoded as U+FFFD like a non-streaming decoder would
				in.consumeChunk(strings.ToValidUTF8(string(pending), "�"), id, &acc, onUpdate)
			}
			return acc.String(), nil
		}
		if err != nil {
			return acc.String(), err
		}
	}
}

func (in *Ingestor) consumeChunk(text, id string, acc *strings.Builder, onUpdate func(id, content string)) {
	for _, line := range strings.Split(text, "\n") {
		if !strings.HasPrefix(line, in.Prefix) {
			continue
		}
		fragment := strings.TrimPrefix(line, in.Prefix)
		if fragment == in.Sentinel {
			continue
		}
		acc.WriteString(fragment)
		if onUpdate != nil {
			onUpdate(id, acc.String())
		}
	}
}

// decodeChunk prepends bytes left over from the previous chunk and holds back an
// incomplete trailing UTF-8 sequence for the next one.
func decodeChunk(pending, chunk []byte) (string, []byte) {
	data := append(pending, chunk...)

	cut := len(data)
	// A rune is at most utf8.UTFMax bytes, so only the tail needs checking
	for i := len(data) - 1; i >= 0 && i >= len(data)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(data[i]) {
			continue
		}
		if !utf8.FullRune(data[i:]) {
			cut = i
		}
		break
	}

	rest := make([]byte, len(data)-cut)
	copy(rest, data[cut:])
	return strings.ToValidUTF8(string(data[:cut]), "�"), rest
}
