package stream

import (
	"bytes"
	"encoding/json"
	"log"
)

var (
	frameSep   = []byte("\n\n")
	dataPrefix = []byte("data: ")
)

// Encode serializes an event as one SSE frame: a data line followed by a
// blank line.
func Encode(e Event) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	frame := make([]byte, 0, len(dataPrefix)+len(data)+len(frameSep))
	frame = append(frame, dataPrefix...)
	frame = append(frame, data...)
	frame = append(frame, frameSep...)
	return frame, nil
}

// Heartbeat returns a content-free comment frame. Decoders skip it; its only
// purpose is to keep intermediaries from timing out an idle connection.
func Heartbeat() []byte {
	return []byte(": ping\n\n")
}

// Decoder reassembles events from a fragmented byte stream. Network chunking
// does not align with frame boundaries, so partial frames are retained and
// completed by later pushes.
type Decoder struct {
	buf []byte
}

// Push appends a chunk of inbound bytes and returns all events completed by
// it, in arrival order. A frame that fails to parse is dropped with a logged
// warning; a single corrupt frame must not abort the stream.
func (d *Decoder) Push(p []byte) []Event {
	d.buf = append(d.buf, p...)

	var events []Event
	for {
		idx := bytes.Index(d.buf, frameSep)
		if idx < 0 {
			return events
		}
		frame := d.buf[:idx]
		d.buf = d.buf[idx+len(frameSep):]

		for _, line := range bytes.Split(frame, []byte("\n")) {
			line = bytes.TrimSuffix(line, []byte("\r"))
			if len(line) == 0 || line[0] == ':' {
				continue
			}
			if !bytes.HasPrefix(line, dataPrefix) {
				continue
			}
			payload := bytes.TrimPrefix(line, dataPrefix)

			var event Event
			if err := json.Unmarshal(payload, &event); err != nil {
				log.Printf("stream: dropping malformed frame: %v", err)
				continue
			}
			if event.Type == "" {
				log.Printf("stream: dropping frame without event type")
				continue
			}
			events = append(events, event)
		}
	}
}

// Buffered returns the number of bytes held back awaiting frame completion.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}
