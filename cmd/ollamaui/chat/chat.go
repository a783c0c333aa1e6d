// Package chatcmder provides the chat command: one-shot prompts and an
// interactive session against an Ollama server, streamed to the terminal.
package chatcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/ollamaui/cmd/ollamaui/setup"
	"github.com/papercomputeco/ollamaui/pkg/cliui"
	"github.com/papercomputeco/ollamaui/pkg/compose"
	"github.com/papercomputeco/ollamaui/pkg/config"
	"github.com/papercomputeco/ollamaui/pkg/decoder"
	"github.com/papercomputeco/ollamaui/pkg/llm"
	"github.com/papercomputeco/ollamaui/pkg/ollama"
	"github.com/papercomputeco/ollamaui/pkg/storage"
)

var (
	userPrompt      = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")
	assistantPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("assistant> ")
)

// flagKeys are the registry flags chat binds to viper.
var flagKeys = []string{
	config.FlagBaseURL,
	config.FlagModel,
	config.FlagTimeout,
	config.FlagSystem,
	config.FlagStream,
	config.FlagStructured,
	config.FlagSchemaFile,
	config.FlagStorage,
	config.FlagSQLite,
	config.FlagPostgresDSN,
	config.FlagEvents,
	config.FlagKafkaBrokers,
	config.FlagKafkaTopic,
	config.FlagJSONLogs,
}

type chatCommander struct {
	// Registry flag targets. Resolved values are read from cfg.
	baseURL     string
	model       string
	timeout     string
	system      string
	stream      bool
	structured  bool
	schemaFile  string
	storage     string
	sqlitePath  string
	postgresDSN string
	events      string
	brokers     string
	topic       string
	jsonLogs    bool

	prompt    string
	file      string
	schema    string
	raw       bool
	markdown  bool
	noHistory bool

	configDir string
	cfg       *config.Config

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	logger   *slog.Logger
	client   *ollama.Client
	recorder *setup.Recorder
}

const chatLongDesc string = `Chat with a model on an Ollama server.

With a prompt (-p or trailing arguments) chat sends one request and prints
the reply. Without one it starts an interactive session that keeps the
conversation history between turns; type /exit or press Ctrl+D to quit.

Streamed replies are printed as they arrive. Generation statistics are
written to stderr after each reply so stdout carries only the model output.
Every exchange is recorded in the history store unless --no-history is set.

Attach a text file with --file. Every @file in the prompt is replaced by the
file content; without the placeholder the file is appended to the prompt.

With --structured the reply is constrained to a JSON schema taken from
--schema, --schema-file, or a small built-in example schema.

Examples:
  ollamaui chat -p "Why is the sky blue?"
  ollamaui chat -m qwen2.5:7b --file notes.md -p "Summarize @file"
  ollamaui chat --structured --schema-file person.yaml -p "Invent a person"
  ollamaui chat --model llama3.2`

const chatShortDesc string = "Chat with a model"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat [prompt]",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			cfg, _, err := setup.Load(cmd, flagKeys)
			if err != nil {
				return err
			}
			cmder.cfg = cfg
			cmder.logger = setup.Logger(cmd, cfg)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.in = cmd.InOrStdin()
			cmder.out = cmd.OutOrStdout()
			cmder.errOut = cmd.ErrOrStderr()

			if cmder.prompt == "" && len(args) > 0 {
				cmder.prompt = strings.Join(args, " ")
			}

			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagBaseURL, &cmder.baseURL)
	config.AddStringFlag(cmd, config.Flags, config.FlagModel, &cmder.model)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)
	config.AddStringFlag(cmd, config.Flags, config.FlagSystem, &cmder.system)
	config.AddBoolFlag(cmd, config.Flags, config.FlagStream, &cmder.stream)
	config.AddBoolFlag(cmd, config.Flags, config.FlagStructured, &cmder.structured)
	config.AddStringFlag(cmd, config.Flags, config.FlagSchemaFile, &cmder.schemaFile)
	config.AddStringFlag(cmd, config.Flags, config.FlagStorage, &cmder.storage)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgresDSN, &cmder.postgresDSN)
	config.AddStringFlag(cmd, config.Flags, config.FlagEvents, &cmder.events)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaBrokers, &cmder.brokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaTopic, &cmder.topic)
	config.AddBoolFlag(cmd, config.Flags, config.FlagJSONLogs, &cmder.jsonLogs)

	cmd.Flags().StringVarP(&cmder.prompt, "prompt", "p", "", "Prompt to send; starts an interactive session when empty")
	cmd.Flags().StringVarP(&cmder.file, "file", "f", "", "Text file to attach to the prompt")
	cmd.Flags().StringVar(&cmder.schema, "schema", "", "Inline JSON schema for structured output")
	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Print the final response record as JSON")
	cmd.Flags().BoolVar(&cmder.markdown, "markdown", false, "Render the reply as markdown")
	cmd.Flags().BoolVar(&cmder.noHistory, "no-history", false, "Do not record exchanges")

	return cmd
}

func (c *chatCommander) run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	client, err := setup.Client(c.cfg, c.logger)
	if err != nil {
		return err
	}
	c.client = client

	base, err := c.baseInput()
	if err != nil {
		return err
	}

	if !c.noHistory {
		c.recorder, err = setup.OpenRecorder(ctx, c.cfg, c.configDir, c.logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := c.recorder.Close(); err != nil {
				c.logger.Warn("closing history storage", "error", err)
			}
		}()
	}

	if c.prompt != "" {
		base.Prompt = c.prompt
		return c.once(ctx, base)
	}

	return c.interactive(ctx, base)
}

// baseInput collects everything but the prompt text from flags and config.
func (c *chatCommander) baseInput() (compose.Input, error) {
	in := compose.Input{
		Model:      c.cfg.Client.Model,
		System:     c.cfg.Chat.System,
		Structured: c.cfg.Chat.Structured,
		Stream:     c.cfg.Chat.StreamEnabled(),
	}

	if c.file != "" {
		content, err := compose.ReadFile(c.file)
		if err != nil {
			return in, err
		}
		in.FileContent = content
	}

	if in.Structured {
		schema, err := c.resolveSchema()
		if err != nil {
			return in, err
		}
		in.Schema = schema
	}

	return in, nil
}

// resolveSchema picks --schema, then chat.schema_file, then the example
// schema.
func (c *chatCommander) resolveSchema() (string, error) {
	if c.schema != "" {
		return c.schema, nil
	}

	if c.cfg.Chat.SchemaFile != "" {
		schema, err := compose.LoadSchemaFile(c.cfg.Chat.SchemaFile)
		if err != nil {
			return "", err
		}
		return string(schema), nil
	}

	return compose.DefaultSchema, nil
}

func (c *chatCommander) once(ctx context.Context, in compose.Input) error {
	req, err := compose.Compose(in)
	if err != nil {
		return errors.New(compose.UserMessage(err))
	}

	_, err = c.send(ctx, req)
	return err
}

func (c *chatCommander) interactive(ctx context.Context, base compose.Input) error {
	fmt.Fprintln(c.out)
	fmt.Fprintf(c.out, "  %s %s\n",
		cliui.KeyStyle.Render("Model:"),
		cliui.NameStyle.Render(base.Model),
	)
	fmt.Fprintf(c.out, "  %s %s\n\n",
		cliui.KeyStyle.Render("Server:"),
		cliui.DimStyle.Render(c.client.BaseURL()),
	)
	fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /exit or Ctrl+D to quit."))

	var history []llm.Message
	scanner := bufio.NewScanner(c.in)

	for ctx.Err() == nil {
		fmt.Fprint(c.out, userPrompt)
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/exit" {
			break
		}

		in := base
		in.Prompt = line
		if len(history) > 0 {
			// The system prompt and attachment belong to the first turn only.
			in.System = ""
			in.FileContent = ""
		}

		req, err := compose.Compose(in)
		if err != nil {
			fmt.Fprintf(c.errOut, "  %s %s\n", cliui.FailMark, compose.UserMessage(err))
			continue
		}
		req.Messages = append(append([]llm.Message{}, history...), req.Messages...)

		fmt.Fprint(c.out, assistantPrompt)
		res, err := c.send(ctx, req)
		if err != nil {
			fmt.Fprintf(c.errOut, "  %s %v\n", cliui.FailMark, err)
			continue
		}

		history = append(req.Messages, llm.NewTextMessage(llm.RoleAssistant, res.Content))
		fmt.Fprintln(c.out)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Fprintln(c.out)
	return nil
}

// send runs one request, prints the reply and records the exchange.
func (c *chatCommander) send(ctx context.Context, req *llm.ChatRequest) (*decoder.Result, error) {
	ex := storage.NewExchange(req)

	// Streamed replies are printed as they arrive, except markdown which is
	// rendered once complete.
	live := req.Stream && !c.markdown

	var (
		res *decoder.Result
		err error
	)
	if live {
		res, err = c.client.Chat(ctx, req, func(u decoder.Update) {
			if u.Delta != "" {
				fmt.Fprint(c.out, u.Delta)
			}
		})
		fmt.Fprintln(c.out)
		if err == nil {
			c.reprintJSON(res.Content)
		}
	} else {
		err = cliui.Step(c.errOut, "Waiting for "+req.Model, func() error {
			var chatErr error
			res, chatErr = c.client.Chat(ctx, req, nil)
			return chatErr
		})
		if res != nil {
			c.print(res.Content)
		}
	}

	ex.Complete(res, err)
	if ctx.Err() == nil {
		c.record(ex)
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return res, errors.New("request cancelled")
		}
		return res, fmt.Errorf("chat request failed: %s", ollama.Describe(err))
	}

	if res.Stats != nil {
		fmt.Fprintln(c.errOut)
		cliui.WriteStats(c.errOut, res.Stats)
	}

	if c.raw && res.Terminal != nil {
		raw, _ := cliui.PrettyJSON(string(res.Terminal.Raw))
		fmt.Fprintln(c.out)
		fmt.Fprintln(c.out, raw)
	}

	return res, nil
}

// print writes a finished reply: JSON is indented (and highlighted on a
// terminal), markdown is rendered with glamour when asked for.
func (c *chatCommander) print(content string) {
	if pretty, ok := c.prettyJSON(content); ok {
		fmt.Fprintln(c.out, pretty)
		return
	}

	if c.markdown {
		rendered, err := cliui.RenderMarkdown(content)
		if err != nil {
			c.logger.Debug("markdown rendering failed", "error", err)
		}
		fmt.Fprint(c.out, rendered)
		return
	}

	fmt.Fprintln(c.out, content)
}

// reprintJSON prints a streamed reply again, indented, when it is JSON.
func (c *chatCommander) reprintJSON(content string) {
	pretty, ok := c.prettyJSON(content)
	if !ok || pretty == strings.TrimSpace(content) {
		return
	}
	fmt.Fprintf(c.out, "\n%s\n", pretty)
}

func (c *chatCommander) prettyJSON(content string) (string, bool) {
	pretty, ok := cliui.PrettyJSON(content)
	if !ok {
		return content, false
	}
	if c.isTerminal() {
		pretty = cliui.HighlightJSON(pretty)
	}
	return pretty, true
}

func (c *chatCommander) record(ex *storage.Exchange) {
	if c.recorder == nil {
		return
	}
	if !c.recorder.Record(ex) {
		c.logger.Warn("exchange not recorded", "exchange_id", ex.ID)
	}
}

func (c *chatCommander) isTerminal() bool {
	f, ok := c.out.(*os.File)
	return ok && cliui.IsTerminal(f)
}
