/*
Package api exposes the wallet store over HTTP with JSON bodies.

All binary values, payloads and signatures, are lowercase hex strings. The
caller of a request is identified by an Authenticator. Calls that change
state or read metadata require an authenticated caller.
*/
package api
