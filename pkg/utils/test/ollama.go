package testutils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/papercomputeco/ollamaui/pkg/llm"
)

// FakeOllamaVersion is what FakeOllama reports from /api/version.
const FakeOllamaVersion = "0.6.2"

// FakeOllama is an httptest server speaking enough of the Ollama API for
// command and handler tests:
//
//   - /api/chat streams "Hello there" as split NDJSON, or answers a single
//     structured object when stream is false. The model "missing" gets a 404.
//   - /api/tags lists llama3.2:latest and qwen2.5:7b.
//   - /api/version reports FakeOllamaVersion.
type FakeOllama struct {
	*httptest.Server

	mu       sync.Mutex
	requests []llm.ChatRequest
}

// NewFakeOllama starts a FakeOllama. Close it when done.
func NewFakeOllama() *FakeOllama {
	f := &FakeOllama{}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	return f
}

// Requests returns every chat request received so far.
func (f *FakeOllama) Requests() []llm.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]llm.ChatRequest(nil), f.requests...)
}

func (f *FakeOllama) handle(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/version":
		fmt.Fprintf(w, `{"version":%q}`, FakeOllamaVersion)

	case "/api/tags":
		fmt.Fprint(w, `{"models":[`+
			`{"name":"llama3.2:latest","model":"llama3.2:latest","size":2019393189,"details":{"family":"llama","parameter_size":"3.2B","quantization_level":"Q4_K_M"}},`+
			`{"name":"qwen2.5:7b","model":"qwen2.5:7b","size":4683087332,"details":{"family":"qwen2","parameter_size":"7.6B","quantization_level":"Q4_K_M"}}`+
			`]}`)

	case "/api/chat":
		var req llm.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, `{"error":%q}`, err.Error())
			return
		}

		f.mu.Lock()
		f.requests = append(f.requests, req)
		f.mu.Unlock()

		f.chat(w, &req)

	default:
		http.NotFound(w, r)
	}
}

func (f *FakeOllama) chat(w http.ResponseWriter, req *llm.ChatRequest) {
	if req.Model == "missing" {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"model 'missing' not found"}`)
		return
	}

	if !req.Stream {
		fmt.Fprint(w, `{"message":{"role":"assistant","content":"{\"example\":\"hi\"}"},"done":true,"eval_count":8,"eval_duration":4000000000}`)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	flusher, _ := w.(http.Flusher)
	for _, chunk := range []string{
		`{"message":{"content":"Hel`,
		`lo"},"done":false}` + "\n",
		`{"message":{"content":" there"},"done":false}` + "\n",
		`{"message":{"content":""},"done":true,"prompt_eval_count":10,"prompt_eval_duration":500000000,"eval_count":4,"eval_duration":2000000000}` + "\n",
	} {
		fmt.Fprint(w, chunk)
		if flusher != nil {
			flusher.Flush()
		}
	}
}
