// Package rest implements the REST-controlled recording device.Driver: an
// HTTP client against a fixed small route set (status probe, recording
// start/stop, event post), with the cached status response serving cheap
// subsequent reads and a JSON command envelope as Send's wire surface.
package rest
