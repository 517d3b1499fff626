// Package middleware wraps the API handler with the cross-cutting HTTP
// concerns: CORS, request IDs, access logging, panic recovery and request
// metrics.
//
// Chain(h, mws...) applies middlewares so that the first one listed is the
// outermost. The server wires them as
//
//	Chain(api, RequestID(), AccessLog(logger), Instrument(m, route), Recover(logger), CORS(cfg))
package middleware
