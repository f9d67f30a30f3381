// Package gateway assembles the HTTP surface of the kernel gateway:
// one execution handler per configured endpoint path, token
// authorization and CORS as injected capabilities, verbatim download
// of the source artifact, and an activity snapshot for health
// inspection.
package gateway
