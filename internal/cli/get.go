package cli

import (
	"github.com/spf13/cobra"

	"github.com/wesleyorama2/barehttp/http"
)

var getCmd = &cobra.Command{
	Use:   "get URL",
	Short: "Make a GET request to the specified URL",
	Args:  cobra.ExactArgs(1),
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

		c, err := loadChecks(cmd)
		if err != nil {
			return err
		}

		req, err := http.NewRequest(string(http.MethodGet), args[0], header, nil)
		if err != nil {
			return err
		}

		return exchange(opts, req, c)
	},
}

func addGetFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayP("header", "H", []string{}, "HTTP headers to include (can be used multiple times)")
	addCheckFlags(cmd)
}

func init() {
	addGetFlags(getCmd)
}
