package compose_test

import (
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ollamaui/pkg/compose"
)

var _ = Describe("Files", func() {
	var tmpDir string

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
	})

	write := func(name, content string) string {
		path := filepath.Join(tmpDir, name)
		Expect(os.WriteFile(path, []byte(content), 0o600)).To(Succeed())
		return path
	}

	Describe("ReadFile", func() {
		It("reads a text attachment", func() {
			content, err := compose.ReadFile(write("notes.txt", "hello\nworld"))
			Expect(err).NotTo(HaveOccurred())
			Expect(content).To(Equal("hello\nworld"))
		})

		It("rejects binary content", func() {
			_, err := compose.ReadFile(write("blob.bin", "\xff\xfe\x00"))
			Expect(err).To(MatchError(compose.ErrBinaryFile))
		})

		It("rejects oversized files", func() {
			_, err := compose.ReadFile(write("big.txt", strings.Repeat("a", compose.MaxFileSize+1)))
			Expect(err).To(MatchError(compose.ErrFileTooLarge))
		})

		It("reports a missing file", func() {
			_, err := compose.ReadFile(filepath.Join(tmpDir, "nope.txt"))
			Expect(err).To(MatchError(os.ErrNotExist))
		})
	})

	Describe("LoadSchemaFile", func() {
		It("loads a JSON schema", func() {
			format, err := compose.LoadSchemaFile(write("schema.json", compose.DefaultSchema))
			Expect(err).NotTo(HaveOccurred())
			Expect(format).To(MatchJSON(compose.DefaultSchema))
		})

		It("converts a YAML schema to JSON", func() {
			path := write("schema.yaml", `type: object
properties:
  example:
    type: string
required:
  - example
`)
			format, err := compose.LoadSchemaFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(format).To(MatchJSON(compose.DefaultSchema))
		})

		It("keeps YAML mapping order and large integers", func() {
			path := write("ordered.yaml", `type: object
properties:
  zeta:
    type: string
  alpha:
    type: integer
    maximum: 9007199254740993
    exclusive: false
required: [zeta, alpha]
`)
			format, err := compose.LoadSchemaFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(format)).To(Equal(`{"type":"object","properties":{"zeta":{"type":"string"},"alpha":{"type":"integer","maximum":9007199254740993,"exclusive":false}},"required":["zeta","alpha"]}`))
		})

		It("rejects an empty YAML document", func() {
			_, err := compose.LoadSchemaFile(write("empty.yml", ""))
			Expect(err).To(MatchError(compose.ErrInvalidSchema))
		})

		It("rejects invalid JSON", func() {
			_, err := compose.LoadSchemaFile(write("bad.json", "{"))
			Expect(err).To(MatchError(compose.ErrInvalidSchema))
		})
	})
})
