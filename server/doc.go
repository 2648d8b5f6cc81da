// Package server hosts a fastigo application over net/http. It owns
// everything socket-shaped: listener lifecycle with graceful shutdown,
// environment-driven configuration, and the bridge that translates real
// HTTP connections into the transport message protocol the dispatcher
// consumes. Lifespan startup and shutdown run through the same dispatch
// path as requests, framed as a dedicated lifespan scope.
package server
