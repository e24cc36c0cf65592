// Package websocket streams upload session progress to browsers.
//
// A Hub implements session.Notifier. Each Client subscribes to one session
// key, given as the "session" query parameter on the upgrade request, and
// receives only that session's events. Clients without a key receive every
// event. Messages use the envelope defined in pkg/contracts/events.
//
// Slow clients whose send buffer fills are disconnected rather than allowed
// to stall delivery to everyone else.
package websocket
