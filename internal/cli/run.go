package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/barehttp/http"
	"github.com/wesleyorama2/barehttp/internal/config"
	"github.com/wesleyorama2/barehttp/internal/output"
	"github.com/wesleyorama2/barehttp/pkg/jsonpath"
	"github.com/wesleyorama2/barehttp/pkg/jsonschema"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run named requests from a request file",
	Long: `Run a single named request (-r) or every request of a suite (-s) from a
request file. Values extracted from one response become variables of the
requests that follow it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := loadOptions(cmd)
		if err != nil {
			return err
		}

		configFile, _ := cmd.Flags().GetString("config")
		environment, _ := cmd.Flags().GetString("environment")
		requestName, _ := cmd.Flags().GetString("request")
		suiteName, _ := cmd.Flags().GetString("suite")

		if (requestName == "") == (suiteName == "") {
			return fmt.Errorf("exactly one of --request or --suite is required")
		}

		// Load configuration
		cfg, err := config.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		// Validate configuration
		if errs := config.ValidateConfig(cfg); len(errs) > 0 {
			msgs := make([]string, len(errs))
			for i, e := range errs {
				msgs[i] = "  - " + e.Error()
			}
			return fmt.Errorf("invalid configuration:\n%s", strings.Join(msgs, "\n"))
		}

		if err := config.ValidateEnvironment(cfg, environment); err != nil {
			return err
		}
		env := cfg.Environments[environment]

		r := &runner{
			cfg:    cfg,
			env:    env,
			vars:   config.MergeEnvironments(env.Vars, nil),
			opts:   opts,
			client: opts.newClient(),
		}

		if requestName != "" {
			if err := config.ValidateRequest(cfg, requestName); err != nil {
				return err
			}
			step, err := r.execute(requestName)
			if err != nil {
				return err
			}
			if opts.format != output.FormatText && !opts.raw {
				result := &output.SuiteResult{Suite: requestName, Timestamp: time.Now().Format(time.RFC3339)}
				result.AddStep(step)
				fmt.Fprint(opts.out, opts.formatter.FormatSuite(result))
			}
			if !step.Passed {
				return fmt.Errorf("request %s failed: %s", requestName, strings.Join(step.Errors, "; "))
			}
			return nil
		}

		if err := config.ValidateSuite(cfg, suiteName); err != nil {
			return err
		}
		suite := cfg.Suites[suiteName]

		// Suite variables may refer to environment variables.
		r.vars = config.MergeEnvironments(r.vars, config.ProcessEnvironmentInMap(suite.Vars, env.Vars))

		result := &output.SuiteResult{
			Suite:     suiteName,
			Timestamp: time.Now().Format(time.RFC3339),
		}
		for _, name := range suite.Requests {
			step, err := r.execute(name)
			if err != nil {
				return err
			}
			result.AddStep(step)
		}

		fmt.Fprint(opts.out, opts.formatter.FormatSuite(result))

		if result.Failed > 0 {
			return fmt.Errorf("%d of %d requests failed", result.Failed, result.Total)
		}
		return nil
	},
}

// runner executes the named requests of one request file against one
// environment, carrying variables from step to step.
type runner struct {
	cfg    *config.Config
	env    config.Environment
	vars   map[string]string
	opts   *options
	client *http.Client
}

// execute sends one named request. Problems with the request or its
// response are recorded in the step; only a fatal error is returned.
func (r *runner) execute(name string) (output.StepResult, error) {
	step := output.StepResult{Name: name}
	reqCfg := r.cfg.Requests[name]

	fail := func(format string, args ...any) (output.StepResult, error) {
		step.Errors = append(step.Errors, fmt.Sprintf(format, args...))
		return step, nil
	}

	url := r.env.ResolveURL(config.ProcessEnvironment(reqCfg.URL, r.vars))
	header := config.BuildHeader(r.env, reqCfg, r.vars)

	body, hasBody, err := reqCfg.BodyBytes(r.vars)
	if err != nil {
		return fail("%v", err)
	}

	method := reqCfg.Method
	if method == "" {
		method = string(http.MethodGet)
	}

	var payload any
	if hasBody {
		payload = body
	}

	req, err := http.NewRequest(method, url, header, payload)
	if err != nil {
		return fail("%v", err)
	}

	if r.opts.format == output.FormatText || r.opts.raw {
		r.opts.printRequest(req)
	}
	if r.opts.verbose && r.opts.format != output.FormatText {
		step.Request = output.NewRequestData(req, true)
	}

	ctx, cancel := r.opts.connectContext()
	defer cancel()

	start := time.Now()
	resp, err := r.client.Do(ctx, req)
	step.Duration = time.Since(start).Milliseconds()
	if err != nil {
		if http.IsFatal(err) {
			return step, err
		}
		return fail("%v", err)
	}

	text := resp.GetBodyAsString()
	if r.opts.format == output.FormatText || r.opts.raw {
		r.opts.printResponse(resp, text)
	}
	step.Response = output.NewResponseData(resp, text)

	if !reqCfg.HasStatusAssertion() && (resp.IsClientError() || resp.IsServerError()) {
		step.Errors = append(step.Errors, fmt.Sprintf("unexpected status %d %s", resp.StatusCode, resp.StatusText))
	}
	for _, a := range reqCfg.Assertions {
		passed, message := a.Evaluate(resp)
		step.Assertions = append(step.Assertions, output.AssertionResult{Passed: passed, Message: message})
		if !passed {
			step.Errors = append(step.Errors, message)
		}
	}

	if len(reqCfg.Extract) > 0 {
		extracted, err := jsonpath.ExtractMultiple(resp.Content, reqCfg.Extract)
		for k, v := range extracted {
			r.vars[k] = v
		}
		if len(extracted) > 0 {
			step.Extracted = extracted
		}
		if err != nil {
			step.Errors = append(step.Errors, err.Error())
		}
	}

	if reqCfg.Validate != nil {
		if errs := validateBody(resp.Content, reqCfg.Validate); len(errs) > 0 {
			for _, e := range errs {
				step.Errors = append(step.Errors, e.Error())
			}
		}
	}

	step.Passed = len(step.Errors) == 0
	return step, nil
}

func validateBody(body []byte, schema map[string]interface{}) jsonschema.ValidationErrors {
	data, err := json.Marshal(schema)
	if err != nil {
		return jsonschema.ValidationErrors{fmt.Errorf("encoding schema: %w", err)}
	}
	_, errs := jsonschema.ValidateWithErrors(body, data)
	return errs
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "", "Request file (YAML or JSON)")
	cmd.Flags().StringP("environment", "e", "", "Environment to run against")
	cmd.Flags().StringP("request", "r", "", "Name of the request to run")
	cmd.Flags().StringP("suite", "s", "", "Name of the suite to run")
	cmd.MarkFlagRequired("config")
	cmd.MarkFlagRequired("environment")
	cmd.MarkFlagsMutuallyExclusive("request", "suite")
}

func init() {
	addRunFlags(runCmd)
}
