package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/barehttp/http"
)

var postCmd = &cobra.Command{
	Use:   "post URL",
	Short: "Make a POST request to the specified URL",
	Long: `Make a POST request to the specified URL.

The body is given with -d, or with -j which also sets
Content-Type: application/json unless a Content-Type header is supplied.
A value starting with @ names a file to read the body from.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := loadOptions(cmd)
		if err != nil {
			return err
		}

		headers, _ := cmd.Flags().GetStringArray("header")
		header, err := parseHeaders(headers)
		if err != nil {
			return err
		}

		data, _ := cmd.Flags().GetString("data")
		jsonData, _ := cmd.Flags().GetString("json")

		var body any
		switch {
		case cmd.Flags().Changed("json"):
			if !header.Has("Content-Type") {
				header.Set("Content-Type", "application/json")
			}
			if body, err = readBody(jsonData); err != nil {
				return err
			}
		case cmd.Flags().Changed("data"):
			if body, err = readBody(data); err != nil {
				return err
			}
		}

		c, err := loadChecks(cmd)
		if err != nil {
			return err
		}

		req, err := http.NewRequest(string(http.MethodPost), args[0], header, body)
		if err != nil {
			return err
		}

		return exchange(opts, req, c)
	},
}

// readBody returns the flag value, or the contents of the file named
// after a leading @.
func readBody(value string) ([]byte, error) {
	path, ok := strings.CutPrefix(value, "@")
	if !ok {
		return []byte(value), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	return b, nil
}

func addPostFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayP("header", "H", []string{}, "HTTP headers to include (can be used multiple times)")
	cmd.Flags().StringP("data", "d", "", "Request body")
	cmd.Flags().StringP("json", "j", "", "JSON request body")
	cmd.MarkFlagsMutuallyExclusive("data", "json")
	addCheckFlags(cmd)
}

func init() {
	addPostFlags(postCmd)
}
