// Package events subscribes to the server's push channel.
//
// # Overview
//
// A [Subscriber] holds at most one live text/event-stream connection and
// delivers decoded [Event] values, in arrival order, to the current
// [Handler]. The handler can be swapped at any time with
// [Subscriber.SetHandler] without touching the connection, so the owner can
// rebind its callback as often as it likes while the connection itself is
// opened once per mount and closed once per unmount.
//
// # Lifecycle
//
//	sub := events.NewSubscriber(client, logger)
//	unsubscribe := sub.Subscribe(ctx, func(ev events.Event) { ... })
//	defer unsubscribe()
//
// Subscribe returns immediately; the connection is opened in the background.
// Subscribing again closes the previous connection before opening the next.
//
// # Errors
//
// A failed connect, a non-200 response, a read error, or the server closing
// the stream all end the subscription: the connection is closed, the failure
// is logged, and the optional OnError hook receives an error wrapping
// [ErrChannel]. There is no automatic reconnection; callers that want it
// call Subscribe again.
package events
