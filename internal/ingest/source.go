package ingest

import (
	"context"
	"time"
)

// Message is one raw record pulled from the streaming source. Topic tags
// the event category; Value is the unparsed payload.
type Message struct {
	Topic string
	Value []byte
}

// Source is the streaming collaborator boundary. Poll blocks at most
// timeout and returns whatever batch arrived in that window; an empty
// batch with a nil error is a normal idle cycle.
type Source interface {
	Poll(ctx context.Context, timeout time.Duration) ([]Message, error)
	Close() error
}
