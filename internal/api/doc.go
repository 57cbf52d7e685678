// Package api provides the JSON HTTP server for domainchat.
//
// # Architecture
//
// The server uses Go 1.22+ routing with a layered middleware stack:
//
//	Recovery → RequestID → Logging → RateLimit → Routes
//
// Health probes (/health, /ready) bypass the middleware stack via a
// top-level mux, ensuring they remain fast and unauthenticated.
//
// # Endpoints
//
// Chat:
//   - POST /chat/chatDomain — answer a domain query
//
// Suggestions:
//   - GET    /suggestions          — cached snapshot (after reload)
//   - POST   /suggestions/reload   — refresh the snapshot from storage
//   - GET    /suggestions/lookup   — find by exact question (?question=)
//   - DELETE /suggestions/{id}     — delete by ID
//
// Chat log:
//   - GET /chatlog — recent chat-domain records (?limit=)
//
// Health probes (no middleware):
//   - GET /health — returns {"status":"ok"}
//   - GET /ready  — pings the database pool
//
// # Error Handling
//
// Error responses use an envelope format:
//
//	{"error": {"code": "...", "message": "..."}}
//
// Successful chat responses use the flat wire shape
// {"response": ..., "is_outdomain": ...} for compatibility with
// existing clients.
package api
