package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/careerhub/hubclient/internal/apiclient"
	"github.com/careerhub/hubclient/internal/apierr"
)

func requestCommand() *cli.Command {
	return &cli.Command{
		Name:      "request",
		Usage:     "send one request through the client and print the response body",
		ArgsUsage: "METHOD PATH",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagData,
				Aliases: []string{"d"},
				Usage:   "JSON request body",
			},
			&cli.StringSliceFlag{
				Name:    flagHeader,
				Aliases: []string{"H"},
				Usage:   "extra header as 'Name: value' (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:    flagQuery,
				Aliases: []string{"q"},
				Usage:   "query parameter as key=value (repeatable)",
			},
		},
		Action: requestAction,
	}
}

func requestAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 2 {
		return fmt.Errorf("expected METHOD PATH, got %d argument(s)", cmd.Args().Len())
	}
	method := strings.ToUpper(cmd.Args().Get(0))
	path := cmd.Args().Get(1)

	opts, err := requestOptions(cmd.StringSlice(flagHeader), cmd.StringSlice(flagQuery))
	if err != nil {
		return err
	}

	var body any
	if data := cmd.String(flagData); data != "" {
		if !json.Valid([]byte(data)) {
			return errors.New("--data is not valid JSON")
		}
		body = json.RawMessage(data)
	}

	req, err := apiclient.NewRequest(method, path, body, opts...)
	if err != nil {
		return err
	}

	application, shutdown, err := newCommandApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer flush(shutdown)

	resp, err := application.Client().Do(ctx, req)
	if err != nil {
		// Validation messages and similar live in the failure body
		var apiErr *apierr.Error
		if errors.As(err, &apiErr) && len(apiErr.Body) > 0 {
			writeBody(stdout(cmd), apiErr.Body)
		}
		return err
	}

	if resp.StatusCode != http.StatusNoContent {
		writeBody(stdout(cmd), resp.Body)
	}
	return nil
}

func requestOptions(headers, query []string) ([]apiclient.RequestOption, error) {
	opts := make([]apiclient.RequestOption, 0, len(headers)+len(query))
	for _, h := range headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid header %q, want 'Name: value'", h)
		}
		opts = append(opts, apiclient.WithHeader(strings.TrimSpace(name), strings.TrimSpace(value)))
	}
	for _, q := range query {
		key, value, ok := strings.Cut(q, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid query parameter %q, want key=value", q)
		}
		opts = append(opts, apiclient.WithQuery(key, value))
	}
	return opts, nil
}

// writeBody prints JSON indented and anything else verbatim.
func writeBody(w io.Writer, body []byte) {
	var out bytes.Buffer
	if err := json.Indent(&out, body, "", "  "); err != nil {
		out.Reset()
		out.Write(body)
	}
	if !bytes.HasSuffix(out.Bytes(), []byte("\n")) {
		out.WriteByte('\n')
	}
	_, _ = w.Write(out.Bytes())
}
