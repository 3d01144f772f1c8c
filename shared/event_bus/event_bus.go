package event_bus

import "roboscapesim/shared/data_structures"

func NewEventBus() EventBus {
	return &EventBus_t{
		subscriptions: data_structures.NewSafeMap[string, *data_structures.SafeSet[Subscriber]](),
		handlers:      data_structures.NewSafeMap[Subscriber, *data_structures.SafeMap[string, SubscriberHandler]](),
	}
}

func (eb *EventBus_t) Subscribe(eventType string, subscriber *Subscriber, handler SubscriberHandler) *Subscriber {
	if subscriber == nil {
		subscriber = NewSubscriber()
	}

	handlers := eb.handlers.GetOrDefault(*subscriber, data_structures.NewSafeMap[string, SubscriberHandler]())
	handlers.Set(eventType, handler)
	eb.handlers.Set(*subscriber, handlers)

	set := eb.subscriptions.GetOrDefault(eventType, data_structures.NewSafeSet[Subscriber]())
	set.Add(*subscriber)
	eb.subscriptions.Set(eventType, set)
	return subscriber
}

func (eb *EventBus_t) Unsubscribe(eventType string, subscriber *Subscriber) {
	if subscriber == nil {
		return
	}

	if set, ok := eb.subscriptions.Get(eventType); ok {
		set.Remove(*subscriber)
		eb.subscriptions.DeleteIfEmpty(eventType)
	}

	if handlers, ok := eb.handlers.Get(*subscriber); ok {
		handlers.Delete(eventType)
		if handlers.IsEmpty() {
			eb.handlers.Delete(*subscriber)
		}
	}
}

func (eb *EventBus_t) Publish(event Event) {
	if event == nil {
		return
	}

	eventType := event.GetType()
	set, ok := eb.subscriptions.Get(eventType)
	if !ok {
		return
	}
	for sub := range set.Iterate() {
		handlers, ok := eb.handlers.Get(sub)
		if !ok {
			continue
		}
		if handler, ok := handlers.Get(eventType); ok {
			go handler(event)
		}
	}
}

func (eb *EventBus_t) PublishData(eventType string, data interface{}) {
	eb.Publish(NewDefaultEvent(eventType, data))
}
