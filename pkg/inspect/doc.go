// Package inspect serves a store over HTTP for debugging and tooling.
//
// Routes:
//
//	GET    /keys            list local entries in insertion order
//	GET    /keys/{key}      read one key (parent chain included)
//	PUT    /keys/{key}      set a key from a JSON body
//	DELETE /keys/{key}      remove a local key
//	POST   /trigger/{key}   notify a key's watchers without changing it
//	GET    /ws?keys=a,b     stream the values of keys on every change
//	GET    /metrics         Prometheus metrics
//
// The WebSocket stream registers an Observer with Store.Watch, so it
// receives one message per debounced notification, carrying the current
// values of every requested key.
package inspect
