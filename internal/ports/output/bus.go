package output

import (
	"spacyboard/internal/domain/entities"
	"spacyboard/internal/ports/input"
)

// Publisher broadcasts facts to every subscriber.
type Publisher interface {
	Publish(fact entities.Fact)
}

// Subscriber registers fact handlers. An empty type list subscribes to
// every fact type.
type Subscriber interface {
	Subscribe(name string, handler input.FactHandler, types ...entities.FactType) (unsubscribe func())
}

// Bus is the notification bus shared by all components.
type Bus interface {
	Publisher
	Subscriber
}
