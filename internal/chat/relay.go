package chat

import (
	"errors"
	"io"

	"github.com/Encore7/codebase-explainer-agent/internal/llm"
)

// Frame is one outgoing message on a chat connection. Token frames carry
// is_final false; the answer ends with exactly one final frame, which has
// an empty token and, on failure, an error description.
type Frame struct {
	Token   string `json:"token"`
	IsFinal bool   `json:"is_final"`
	Error   string `json:"error,omitempty"`
}

// Sink receives frames. A write error means the peer is gone; the relay
// stops immediately without attempting further writes.
type Sink interface {
	WriteFrame(Frame) error
}

// Relay pumps an answer stream into the sink frame by frame. On normal
// end-of-stream it emits the single final frame. On a mid-stream provider
// error it emits one final frame carrying the error instead. If the sink
// write fails, no final frame is sent and the write error is returned.
func Relay(stream llm.Stream, sink Sink) error {
	defer stream.Close()

	for {
		token, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return sink.WriteFrame(Frame{IsFinal: true})
		}
		if err != nil {
			return sink.WriteFrame(Frame{IsFinal: true, Error: err.Error()})
		}
		if token == "" {
			continue
		}
		if err := sink.WriteFrame(Frame{Token: token}); err != nil {
			return err
		}
	}
}
