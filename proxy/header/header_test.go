package header_test

import (
	"net/http"
	"net/http/httptest"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ollamaui/proxy/header"
)

var _ = Describe("CopyRequest", func() {
	var app *fiber.App

	BeforeEach(func() {
		app = fiber.New()
	})

	AfterEach(func() {
		_ = app.Shutdown()
	})

	forward := func(set func(h http.Header)) http.Header {
		var got http.Header
		app.Post("/test", func(c *fiber.Ctx) error {
			req, _ := http.NewRequest(http.MethodPost, "http://upstream/test", nil)
			header.CopyRequest(c, req)
			got = req.Header
			return c.SendStatus(fiber.StatusOK)
		})

		req := httptest.NewRequest(http.MethodPost, "/test", nil)
		set(req.Header)
		resp, err := app.Test(req)
		Expect(err).NotTo(HaveOccurred())
		resp.Body.Close()
		return got
	}

	It("forwards ordinary headers", func() {
		got := forward(func(h http.Header) {
			h.Set("Authorization", "Bearer token123")
			h.Set("Content-Type", "application/json")
		})

		Expect(got.Get("Authorization")).To(Equal("Bearer token123"))
		Expect(got.Get("Content-Type")).To(Equal("application/json"))
	})

	It("drops connection, host and encoding negotiation", func() {
		got := forward(func(h http.Header) {
			h.Set("Connection", "keep-alive")
			h.Set("Accept-Encoding", "gzip, br")
			h.Set("X-Client", "curl")
		})

		Expect(got.Get("Connection")).To(BeEmpty())
		Expect(got.Get("Host")).To(BeEmpty())
		Expect(got.Get("Accept-Encoding")).To(BeEmpty())
		Expect(got.Get("X-Client")).To(Equal("curl"))
	})
})

var _ = Describe("CopyResponse", func() {
	var app *fiber.App

	BeforeEach(func() {
		app = fiber.New()
	})

	AfterEach(func() {
		_ = app.Shutdown()
	})

	relay := func(upstream http.Header) *http.Response {
		app.Get("/test", func(c *fiber.Ctx) error {
			header.CopyResponse(c, &http.Response{Header: upstream})
			return c.SendStatus(fiber.StatusOK)
		})

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test", nil))
		Expect(err).NotTo(HaveOccurred())
		resp.Body.Close()
		return resp
	}

	It("copies ordinary headers and joins repeated values", func() {
		resp := relay(http.Header{
			"Content-Type": {"application/x-ndjson"},
			"X-Multi":      {"a", "b"},
		})

		Expect(resp.Header.Get("Content-Type")).To(Equal("application/x-ndjson"))
		Expect(resp.Header.Get("X-Multi")).To(Equal("a, b"))
	})

	It("does not copy encoding or length", func() {
		resp := relay(http.Header{
			"Content-Encoding": {"gzip"},
			"Content-Length":   {"1234"},
			"X-Request-Id":     {"abc-123"},
		})

		Expect(resp.Header.Get("Content-Encoding")).To(BeEmpty())
		Expect(resp.Header.Get("Content-Length")).NotTo(Equal("1234"))
		Expect(resp.Header.Get("X-Request-Id")).To(Equal("abc-123"))
	})
})

var _ = Describe("Set", func() {
	It("matches names case-insensitively", func() {
		Expect(header.Upstream.Has("accept-encoding")).To(BeTrue())
		Expect(header.Downstream.Has("TRANSFER-ENCODING")).To(BeTrue())
		Expect(header.Downstream.Has("Content-Type")).To(BeFalse())
	})
})
