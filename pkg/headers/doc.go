// Package headers sets client caching headers and gates response
// compression.
//
// SetCacheHeaders adds a max-age directive, Pragma and Expires headers when a
// client cache lifetime is configured. Gzip wraps a handler with chi's
// compressor unless compression is disabled, already active, or the client
// is a legacy browser known to mishandle compressed responses.
package headers
