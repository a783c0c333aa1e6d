package compose

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.yaml.in/yaml/v3"
)

// MaxFileSize is the largest attachment ReadFile accepts.
const MaxFileSize = 1 << 20

var (
	// ErrFileTooLarge is returned for attachments over MaxFileSize.
	ErrFileTooLarge = errors.New("file is too large to attach")

	// ErrBinaryFile is returned for attachments that are not UTF-8 text.
	ErrBinaryFile = errors.New("file is not UTF-8 text")
)

// ReadFile reads a text attachment for use as Input.FileContent.
func ReadFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening attachment: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxFileSize+1))
	if err != nil {
		return "", fmt.Errorf("reading attachment: %w", err)
	}

	if len(data) > MaxFileSize {
		return "", fmt.Errorf("%s: %w", path, ErrFileTooLarge)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s: %w", path, ErrBinaryFile)
	}

	return string(data), nil
}

// LoadSchemaFile reads a schema from disk. Files ending in .yaml or .yml are
// converted to JSON first; anything else must already be JSON.
func LoadSchemaFile(path string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yamlSchema(data)
	default:
		return ParseSchema(string(data))
	}
}

func yamlSchema(data []byte) (json.RawMessage, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind == 0 || root.Kind == yaml.DocumentNode || root.ShortTag() == "!!null" {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidSchema)
	}

	var buf bytes.Buffer
	if err := writeYAMLAsJSON(&buf, root); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}

	return ParseSchema(buf.String())
}

// writeYAMLAsJSON encodes n as JSON, keeping mapping keys in document order.
func writeYAMLAsJSON(buf *bytes.Buffer, n *yaml.Node) error {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			buf.WriteString("null")
			return nil
		}
		return writeYAMLAsJSON(buf, n.Content[0])

	case yaml.AliasNode:
		return writeYAMLAsJSON(buf, n.Alias)

	case yaml.MappingNode:
		buf.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(n.Content[i].Value)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeYAMLAsJSON(buf, n.Content[i+1]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil

	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, item := range n.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeYAMLAsJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil

	case yaml.ScalarNode:
		return writeYAMLScalar(buf, n)

	default:
		return fmt.Errorf("line %d: unsupported YAML node", n.Line)
	}
}

// writeYAMLScalar keeps numeric literals that are already valid JSON as
// written, so large integers are not rounded through float64.
func writeYAMLScalar(buf *bytes.Buffer, n *yaml.Node) error {
	switch n.ShortTag() {
	case "!!null":
		buf.WriteString("null")
		return nil

	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return err
		}
		buf.WriteString(strconv.FormatBool(b))
		return nil

	case "!!int", "!!float":
		if json.Valid([]byte(n.Value)) {
			buf.WriteString(n.Value)
			return nil
		}
		if n.ShortTag() == "!!int" {
			var i int64
			if err := n.Decode(&i); err != nil {
				return err
			}
			buf.WriteString(strconv.FormatInt(i, 10))
			return nil
		}
		var f float64
		if err := n.Decode(&f); err != nil {
			return err
		}
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return fmt.Errorf("line %d: %s has no JSON representation", n.Line, n.Value)
		}
		buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
		return nil

	default:
		out, err := json.Marshal(n.Value)
		if err != nil {
			return err
		}
		buf.Write(out)
		return nil
	}
}
