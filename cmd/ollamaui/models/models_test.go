package modelscmder_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	modelscmder "github.com/papercomputeco/ollamaui/cmd/ollamaui/models"
	"github.com/papercomputeco/ollamaui/pkg/llm"
	testutils "github.com/papercomputeco/ollamaui/pkg/utils/test"
)

var _ = Describe("NewModelsCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := modelscmder.NewModelsCmd()
		Expect(cmd.Use).To(Equal("models"))
		Expect(cmd.Flags().Lookup("base-url")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("json")).NotTo(BeNil())
	})
})

var _ = Describe("Models command execution", func() {
	var (
		upstream  *testutils.FakeOllama
		configDir string
	)

	BeforeEach(func() {
		upstream = testutils.NewFakeOllama()
		configDir = GinkgoT().TempDir()
	})

	AfterEach(func() {
		upstream.Close()
	})

	run := func(baseURL string, args ...string) (string, string, error) {
		base := []string{"models", "--config-dir", configDir, "--base-url", baseURL}
		return testutils.Execute(testutils.RootCmd(modelscmder.NewModelsCmd()), append(base, args...)...)
	}

	It("prints the server version and a table of models", func() {
		stdout, _, err := run(upstream.URL)
		Expect(err).NotTo(HaveOccurred())

		Expect(stdout).To(ContainSubstring(testutils.FakeOllamaVersion))
		Expect(stdout).To(ContainSubstring("llama3.2:latest"))
		Expect(stdout).To(ContainSubstring("qwen2.5:7b"))
		Expect(stdout).To(ContainSubstring("1.9 GiB"))
		Expect(stdout).To(ContainSubstring("Q4_K_M"))
	})

	It("prints models as JSON", func() {
		stdout, _, err := run(upstream.URL, "--json")
		Expect(err).NotTo(HaveOccurred())

		var models []llm.ModelInfo
		Expect(json.Unmarshal([]byte(stdout), &models)).To(Succeed())
		Expect(models).To(HaveLen(2))
		Expect(models[1].Details.ParameterSize).To(Equal("7.6B"))
	})

	It("fails when the server is not reachable", func() {
		_, _, err := run("http://127.0.0.1:1")
		Expect(err).To(MatchError(ContainSubstring("is not reachable")))
	})

	It("rejects arguments", func() {
		_, _, err := run(upstream.URL, "extra")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("FormatSize", func() {
	DescribeTable("renders binary units",
		func(n int64, want string) {
			Expect(modelscmder.FormatSize(n)).To(Equal(want))
		},
		Entry("bytes", int64(512), "512 B"),
		Entry("kibibytes", int64(1536), "1.5 KiB"),
		Entry("gibibytes", int64(2019393189), "1.9 GiB"),
	)
})
