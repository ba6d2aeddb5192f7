package stream

import (
	"bufio"
	"encoding/json"
	"io"
	"log"
	"strings"
	"sync"
)

// Handle is one live SSE connection. The reader goroutine parses data frames
// off the response body and pushes them on events; when the body ends for any
// reason it sends exactly one value on done and closes it. A deliberate Close
// yields a nil terminal value, a transport failure yields the error.
type Handle struct {
	events chan json.RawMessage
	done   chan error
	quit   chan struct{}
	body   io.ReadCloser
	once   sync.Once
}

func newHandle(body io.ReadCloser) *Handle {
	return &Handle{
		events: make(chan json.RawMessage, 16),
		done:   make(chan error, 1),
		quit:   make(chan struct{}),
		body:   body,
	}
}

func (h *Handle) Events() <-chan json.RawMessage {
	return h.events
}

func (h *Handle) Done() <-chan error {
	return h.done
}

// Close releases the underlying connection. Closing twice is a no-op.
func (h *Handle) Close() {
	h.once.Do(func() {
		close(h.quit)
		// unblocks the reader goroutine mid-read
		h.body.Close()
	})
}

func (h *Handle) run() {
	defer h.body.Close()

	scanner := bufio.NewScanner(h.body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var data []byte
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			// blank line terminates one event
			if len(data) > 0 {
				h.dispatch(data)
				data = nil
			}
		case strings.HasPrefix(line, "data:"):
			chunk := strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " ")
			if len(data) > 0 {
				data = append(data, '\n')
			}
			data = append(data, chunk...)
		default:
			// comments and fields we do not use (event:, id:, retry:)
		}
	}

	err := scanner.Err()
	select {
	case <-h.quit:
		// closed on purpose, not a transport failure
		h.done <- nil
	default:
		if err == nil {
			// server ended the stream without a local close
			err = io.ErrUnexpectedEOF
		}
		h.done <- err
	}
	close(h.done)
}

// dispatch forwards one event payload. Payloads that are not JSON never make
// it past this point; they are dropped without terminating the stream.
func (h *Handle) dispatch(payload []byte) {
	if !json.Valid(payload) {
		log.Printf("stream: dropping malformed payload (%d bytes)", len(payload))
		return
	}
	msg := json.RawMessage(append([]byte(nil), payload...))
	select {
	case h.events <- msg:
	case <-h.quit:
	}
}
