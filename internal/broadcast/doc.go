// Package broadcast fans push events out to every open event stream.
//
// Publishers never block: a subscriber that falls more than its buffer
// behind misses messages rather than stalling the publisher.
package broadcast
