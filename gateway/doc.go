/*
Package gateway provides implementations of blendsafe.SigningGateway.

HDGateway keeps the key material in process and derives a key per
derivation path. HTTPGateway is a client of a remote key service, and
NewHTTPHandler exposes any gateway as such a service, so that an
HDGateway can be run on a separate host. Instrument decorates any
gateway with logging and metrics.
*/
package gateway
