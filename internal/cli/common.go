package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/barehttp/http"
	"github.com/wesleyorama2/barehttp/internal/output"
	"github.com/wesleyorama2/barehttp/pkg/jsonpath"
	"github.com/wesleyorama2/barehttp/pkg/jsonschema"
)

// options holds the persistent flags of one invocation.
type options struct {
	verbose        bool
	noColor        bool
	raw            bool
	format         output.OutputFormat
	connectTimeout time.Duration

	out       io.Writer
	errOut    io.Writer
	logger    *slog.Logger
	formatter output.FormatProvider
}

func loadOptions(cmd *cobra.Command) (*options, error) {
	flags := cmd.Flags()
	verbose, _ := flags.GetBool("verbose")
	noColor, _ := flags.GetBool("no-color")
	raw, _ := flags.GetBool("raw")
	outputFlag, _ := flags.GetString("output")
	levelFlag, _ := flags.GetString("log-level")
	connectTimeout, _ := flags.GetDuration("connect-timeout")

	format, err := output.ParseOutputFormat(outputFlag)
	if err != nil {
		return nil, err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(levelFlag)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", levelFlag)
	}

	if connectTimeout <= 0 {
		return nil, fmt.Errorf("connect timeout must be positive, got %s", connectTimeout)
	}

	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()
	colored := output.ColorEnabled(out, noColor)

	return &options{
		verbose:        verbose,
		noColor:        !colored,
		raw:            raw,
		format:         format,
		connectTimeout: connectTimeout,
		out:            out,
		errOut:         errOut,
		logger:         slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level})),
		formatter:      output.GetFormatter(format, verbose, !colored),
	}, nil
}

func (o *options) newClient() *http.Client {
	return http.NewClient(http.WithLogger(o.logger))
}

// connectContext bounds resolution, connect and handshake of one exchange.
func (o *options) connectContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), o.connectTimeout)
}

// notes is where check results go: stdout for text, stderr otherwise so
// that structured output stays parseable.
func (o *options) notes() io.Writer {
	if o.format == output.FormatText {
		return o.out
	}
	return o.errOut
}

// printRequest is called before the exchange.
func (o *options) printRequest(req *http.Request) {
	switch {
	case o.raw:
		if o.verbose {
			fmt.Fprint(o.out, req.String())
		}
	case o.format == output.FormatText || o.verbose:
		fmt.Fprint(o.out, o.formatter.FormatRequest(req))
	}
}

func (o *options) printResponse(resp *http.Response, body string) {
	if o.raw {
		if o.verbose {
			fmt.Fprint(o.out, "\n")
		}
		fmt.Fprint(o.out, resp.String())
		return
	}
	fmt.Fprint(o.out, o.formatter.FormatResponse(resp, body))
}

// parseHeaders turns "Name: value" arguments into an ordered header.
func parseHeaders(values []string) (http.Header, error) {
	var header http.Header
	for _, v := range values {
		key, value, ok := strings.Cut(v, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return header, fmt.Errorf("invalid header %q: want \"Name: value\"", v)
		}
		header.Set(key, strings.TrimSpace(value))
	}
	return header, nil
}

// checks are the per-response flags shared by get and post.
type checks struct {
	encoding string
	policy   http.ErrorPolicy
	extract  []string
	schema   string
}

func addCheckFlags(cmd *cobra.Command) {
	cmd.Flags().String("encoding", "utf-8", "Charset used to decode the response body")
	cmd.Flags().String("errors", "replace", "How to handle undecodable bytes: strict, replace or ignore")
	cmd.Flags().StringArray("extract", []string{}, "JSONPath to extract from the response body, optionally as name=$.path (can be used multiple times)")
	cmd.Flags().String("schema", "", "JSON Schema file the response body must satisfy")
}

func loadChecks(cmd *cobra.Command) (checks, error) {
	encoding, _ := cmd.Flags().GetString("encoding")
	policyFlag, _ := cmd.Flags().GetString("errors")
	extract, _ := cmd.Flags().GetStringArray("extract")
	schema, _ := cmd.Flags().GetString("schema")

	policy, err := http.ParseErrorPolicy(policyFlag)
	if err != nil {
		return checks{}, err
	}
	return checks{encoding: encoding, policy: policy, extract: extract, schema: schema}, nil
}

// exchange sends req, prints both sides and runs the response checks.
func exchange(opts *options, req *http.Request, c checks) error {
	var schema *jsonschema.Schema
	if c.schema != "" {
		s, err := jsonschema.CompileFile(c.schema)
		if err != nil {
			return fmt.Errorf("loading schema: %w", err)
		}
		schema = s
	}

	opts.printRequest(req)

	ctx, cancel := opts.connectContext()
	defer cancel()

	resp, err := opts.newClient().Do(ctx, req)
	if err != nil {
		if http.IsFatal(err) {
			return err
		}
		return fmt.Errorf("request failed: %w", err)
	}

	body, err := resp.Text(c.encoding, c.policy)
	if err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}
	opts.printResponse(resp, body)

	return runChecks(opts, resp, c, schema)
}

func runChecks(opts *options, resp *http.Response, c checks, schema *jsonschema.Schema) error {
	failed := 0
	w := opts.notes()
	ok, bad := output.SuccessIcon(opts.noColor), output.ErrorIcon(opts.noColor)

	for _, arg := range c.extract {
		name, path := extractArg(arg)
		value, err := jsonpath.Extract(resp.Content, path)
		if err != nil {
			fmt.Fprintf(w, "%s %s: %v\n", bad, name, err)
			failed++
			continue
		}
		fmt.Fprintf(w, "%s %s = %s\n", ok, name, value)
	}

	if schema != nil {
		if errs := schema.Validate(resp.Content); len(errs) > 0 {
			for _, e := range errs {
				fmt.Fprintf(w, "%s %s\n", bad, e)
			}
			failed++
		} else {
			fmt.Fprintf(w, "%s response matches schema %s\n", ok, c.schema)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d response check(s) failed", failed)
	}
	return nil
}

// extractArg splits "name=$.path"; a bare path is its own name.
func extractArg(arg string) (name, path string) {
	if name, path, ok := strings.Cut(arg, "="); ok && strings.HasPrefix(path, "$") {
		return name, path
	}
	return arg, arg
}
