// Package http is the transport used to talk to a remote GraphQL endpoint:
// a rate-limited client bound to one URL that posts JSON or multipart bodies
// with a pluggable credential.
//
//	client.go     - Client, single-attempt POST, StatusError
//	auth.go       - credential strategies
//	multipart.go  - ordered multipart/form-data bodies
package http
