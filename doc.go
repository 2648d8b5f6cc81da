// Package fastigo is an HTTP request-dispatch engine: a segment-trie
// router married to a staged request lifecycle. It never touches
// sockets; the hosting layer (package server, or anything else speaking
// the transport protocol) feeds it scopes and message streams, and the
// engine answers with response frames.
//
// An application is assembled once, then dispatched concurrently:
//
//	app := fastigo.New(
//		fastigo.WithLogger(logger),
//		fastigo.WithCORS(fastigo.CORSConfig{Origins: []string{"https://example.com"}}),
//	)
//
//	app.Get("/users/:id", func(ctx context.Context, req *fastigo.Request, rep *fastigo.Reply) error {
//		return rep.JSON(map[string]string{"id": req.Param("id")}).Send(ctx)
//	})
//
//	server.Run(ctx, ":8080", app)
//
// Requests move through fixed stages: routing, middlewares, onRequest
// hooks, body load, preHandler hooks, handler, onResponse hooks. A reply
// sent at any stage short-circuits the remainder; a handler returning
// without sending produces an empty 200. Hook lists are snapshotted per
// route at registration, so the set an endpoint runs with is exactly the
// set that existed when it was registered.
//
// Route patterns are static segments or named parameters (":id"); a
// literal segment always beats a parameter during lookup, and lookup
// cost scales with path depth, not route count. Paths whose final
// segment names a file bypass routing entirely and are served from the
// configured static directory.
package fastigo
