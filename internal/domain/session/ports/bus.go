package ports

import "context"

// Bus defines the interface for the event bus.
type Bus interface {
	Publish(ctx context.Context, topic string, event interface{}) error
	Subscribe(ctx context.Context, topic string) (Subscription, error)
}

type Subscription interface {
	C() <-chan interface{}
	Close() error
}

// Bus topics carrying session state changes.
const (
	TopicPlayback  = "playback.state"
	TopicRecording = "recording.state"
	TopicLibrary   = "library.changed"
)
