package webhook

import "strings"

// ScenePrefix marks the scene value in a subscribe event key.
const ScenePrefix = "qrscene_"

// EventKind is the closed set of event shapes the dispatcher acts on.
type EventKind int

const (
	EventOther EventKind = iota
	EventScan
	EventSubscribeWithScene
	EventSubscribe
)

func (k EventKind) String() string {
	switch k {
	case EventScan:
		return "scan"
	case EventSubscribeWithScene:
		return "subscribe_with_scene"
	case EventSubscribe:
		return "subscribe"
	default:
		return "other"
	}
}

// Event is a classified platform event. SceneValue is set for the two scene kinds.
type Event struct {
	Kind       EventKind
	SceneValue string
}

// Classify maps raw event fields to an Event. Event names compare case-insensitively.
func Classify(event, eventKey string) Event {
	scan := strings.EqualFold(event, "SCAN")
	subscribe := strings.EqualFold(event, "subscribe")
	switch {
	case eventKey != "" && scan:
		return Event{Kind: EventScan, SceneValue: eventKey}
	case eventKey != "" && subscribe && strings.HasPrefix(eventKey, ScenePrefix):
		return Event{Kind: EventSubscribeWithScene, SceneValue: strings.TrimPrefix(eventKey, ScenePrefix)}
	case subscribe:
		return Event{Kind: EventSubscribe}
	default:
		return Event{Kind: EventOther}
	}
}
