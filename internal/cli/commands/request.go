package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kanda-claim/kanda/internal/api"
)

// requestOptions holds the flags of the request command
type requestOptions struct {
	data   string
	form   []string
	files  []string
	web    bool
	output string
}

// NewRequestCmd creates the request command
func NewRequestCmd() *cobra.Command {
	var ro requestOptions

	cmd := &cobra.Command{
		Use:   "request METHOD PATH",
		Short: "Send an authenticated request to the Kanda API",
		Long: `Send an authenticated request to the Kanda API.

The stored session token is sent as a bearer token. A 401 response clears
the session. Examples:

  kanda request GET /claims
  kanda request POST /claims --data '{"plate_number":"RAD 123 A"}'
  kanda request POST /claims/CLM-001/documents --form type=police_report --file document=report.pdf
  kanda request GET /claims --output yaml`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd.Context(), args[0], args[1], ro)
		},
	}

	cmd.Flags().StringVarP(&ro.data, "data", "d", "", "JSON body, or @file to read it from a file")
	cmd.Flags().StringArrayVar(&ro.form, "form", nil, "Multipart field key=value (repeatable)")
	cmd.Flags().StringArrayVar(&ro.files, "file", nil, "Multipart file field=path (repeatable)")
	cmd.Flags().BoolVar(&ro.web, "web", false, "Send to WEB_URL instead of API_URL")
	cmd.Flags().StringVarP(&ro.output, "output", "o", "json", "Output format: json, yaml or raw")

	return cmd
}

func runRequest(ctx context.Context, method, path string, ro requestOptions, opts ...Option) error {
	switch ro.output {
	case "json", "yaml", "raw":
	default:
		return fmt.Errorf("invalid output '%s', must be one of: json, yaml, raw", ro.output)
	}

	data, closers, err := buildRequestData(ro)
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()
	if err != nil {
		return err
	}

	rc, err := newRunContext(ctx, opts...)
	if err != nil {
		return err
	}

	send := rc.store.APIRequest
	if ro.web {
		send = rc.store.WebRequest
	}

	resp, err := send(ctx, path, method, data)
	if err != nil {
		return explain(err)
	}

	return writeResponse(rc.out, resp, ro.output)
}

// buildRequestData turns flags into a request body: multipart when any
// --form/--file is given, JSON when --data is given, nothing otherwise.
func buildRequestData(ro requestOptions) (any, []io.Closer, error) {
	if ro.data != "" && (len(ro.form) > 0 || len(ro.files) > 0) {
		return nil, nil, fmt.Errorf("--data cannot be combined with --form or --file")
	}

	if len(ro.form) > 0 || len(ro.files) > 0 {
		form := api.NewFormData()
		var closers []io.Closer

		for _, kv := range ro.form {
			key, value, ok := strings.Cut(kv, "=")
			if !ok || key == "" {
				return nil, closers, fmt.Errorf("invalid --form %q, expected key=value", kv)
			}
			form.Field(key, value)
		}
		for _, fp := range ro.files {
			field, path, ok := strings.Cut(fp, "=")
			if !ok || field == "" || path == "" {
				return nil, closers, fmt.Errorf("invalid --file %q, expected field=path", fp)
			}
			f, err := os.Open(path)
			if err != nil {
				return nil, closers, fmt.Errorf("failed to open %s: %w", path, err)
			}
			closers = append(closers, f)
			form.File(field, filepath.Base(path), f)
		}
		return form, closers, nil
	}

	if ro.data == "" {
		return nil, nil, nil
	}

	raw := []byte(ro.data)
	if strings.HasPrefix(ro.data, "@") {
		b, err := os.ReadFile(strings.TrimPrefix(ro.data, "@"))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read data file: %w", err)
		}
		raw = b
	}
	if !json.Valid(raw) {
		return nil, nil, fmt.Errorf("--data is not valid JSON")
	}
	return json.RawMessage(raw), nil, nil
}

// writeResponse prints a response in the requested format
func writeResponse(w io.Writer, resp *api.Response, format string) error {
	if format == "raw" || !resp.IsJSON() || resp.Value == nil {
		_, err := w.Write(resp.Raw)
		if err == nil && len(resp.Raw) > 0 && !bytes.HasSuffix(resp.Raw, []byte("\n")) {
			_, err = fmt.Fprintln(w)
		}
		return err
	}

	if format == "yaml" {
		out, err := yaml.Marshal(resp.Value)
		if err != nil {
			return fmt.Errorf("failed to render YAML: %w", err)
		}
		_, err = w.Write(out)
		return err
	}

	out, err := json.MarshalIndent(resp.Value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
