// Package header decides which headers cross the passthrough in each
// direction.
//
//	client <--> ollamaui /ollama/* <--> Ollama
//
// Each leg negotiates its own connection and encoding, so hop-by-hop and
// encoding headers stay on the leg they arrived on.
package header

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Set is a set of canonical header names.
type Set map[string]struct{}

// Has reports whether name is in the set. name is canonicalized first.
func (s Set) Has(name string) bool {
	_, ok := s[http.CanonicalHeaderKey(name)]
	return ok
}

// Upstream lists request headers that are not forwarded to Ollama.
var Upstream = Set{
	"Connection": {},

	// net/http sets Host from the upstream URL.
	"Host": {},

	// Dropping Accept-Encoding lets http.Transport ask for gzip itself and
	// decompress transparently, so the decoder always sees plain bytes.
	"Accept-Encoding": {},
}

// Downstream lists response headers that are not copied back to the client.
var Downstream = Set{
	"Connection": {},

	// fasthttp chunks the client response on its own.
	"Transfer-Encoding": {},

	// The relayed body is already decompressed.
	"Content-Encoding": {},
	"Content-Length":   {},
}

// CopyRequest copies the client's request headers onto req, skipping those
// in Upstream.
func CopyRequest(c *fiber.Ctx, req *http.Request) {
	c.Request().Header.VisitAll(func(key, value []byte) {
		k := string(key)
		if !Upstream.Has(k) {
			req.Header.Add(k, string(value))
		}
	})
}

// CopyResponse copies the upstream response headers onto the client
// response, skipping those in Downstream. Repeated values are joined.
func CopyResponse(c *fiber.Ctx, resp *http.Response) {
	for k, v := range resp.Header {
		if !Downstream.Has(k) {
			c.Set(k, strings.Join(v, ", "))
		}
	}
}
