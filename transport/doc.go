// Package transport defines the message protocol spoken between the
// dispatch core and its hosting layer. The core never opens sockets:
// it consumes a receive/send pair per scope, where the hosting layer
// translates real connections (see package server) into Scope metadata,
// body-chunk messages, and lifespan events.
package transport
