package core

// Event names broadcast over the UI event stream.
const (
	EventRelease  = "release"
	EventMatch    = "match"
	EventDownload = "download"
	EventScan     = "scan"
)

// EventPublisher receives engine events for fan-out to connected clients.
type EventPublisher interface {
	Publish(event string, payload interface{})
}

// NoopPublisher discards events; used when no hub is wired up.
type NoopPublisher struct{}

func (NoopPublisher) Publish(string, interface{}) {}
