package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/careerhub/hubclient/internal/apiclient"
	"github.com/careerhub/hubclient/internal/app"
	"github.com/careerhub/hubclient/internal/notify"
	"github.com/careerhub/hubclient/internal/observability"
)

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "sign in and store the bearer token",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     flagEmail,
				Usage:    "account email",
				Required: true,
			},
			&cli.StringFlag{
				Name:  flagPassword,
				Usage: "account password (prompted when omitted)",
			},
		},
		Action: loginAction,
	}
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "end the session and remove the stored token",
		Action: logoutAction,
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func loginAction(ctx context.Context, cmd *cli.Command) error {
	application, shutdown, err := newCommandApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer flush(shutdown)

	password := cmd.String(flagPassword)
	if password == "" {
		password, err = readPassword(stdin(cmd), stderr(cmd))
		if err != nil {
			return fmt.Errorf("reading password: %w", err)
		}
	}

	cfg := application.Config()
	resp, err := application.Client().Post(ctx, cfg.API.LoginPath, credentials{
		Email:    cmd.String(flagEmail),
		Password: password,
	})
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := resp.Decode(&body); err != nil || body.Token == "" {
		_, _ = fmt.Fprintln(stdout(cmd), "Signed in (cookie session only, no token issued)")
		return nil
	}

	_, _ = fmt.Fprintf(stdout(cmd), "Signed in as %s\n", cmd.String(flagEmail))
	return nil
}

func logoutAction(ctx context.Context, cmd *cli.Command) error {
	application, shutdown, err := newCommandApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer flush(shutdown)

	if err := application.Client().Logout(ctx); err != nil {
		// The local session is gone either way
		_, _ = fmt.Fprintln(stderr(cmd), "Backend logout failed, local token removed")
		return err
	}

	_, _ = fmt.Fprintln(stdout(cmd), "Signed out")
	return nil
}

// newCommandApp builds an App whose notifications and login redirects go to the terminal.
func newCommandApp(ctx context.Context, cmd *cli.Command) (*app.App, observability.ShutdownFunc, error) {
	cfg, err := loadConfig(cmd.String(flagConfig), cmd, os.Environ)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	shutdown, err := instrument(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	errOut := stderr(cmd)
	application, err := app.New(cfg,
		app.WithNotifier(notify.NewTerminalNotifier(errOut)),
		app.WithRouter(apiclient.RouterFunc(func(context.Context, string) {
			_, _ = fmt.Fprintln(errOut, "Session expired. Run `hubclient login` to sign in again.")
		})),
	)
	if err != nil {
		flush(shutdown)
		return nil, nil, fmt.Errorf("failed to create app: %w", err)
	}

	return application, shutdown, nil
}

// readPassword prompts without echo on a terminal and reads one line otherwise.
func readPassword(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		_, _ = fmt.Fprint(prompt, "Password: ")
		raw, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(prompt)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("empty password")
	}
	return line, nil
}

func stdin(cmd *cli.Command) io.Reader {
	if r := cmd.Root().Reader; r != nil {
		return r
	}
	return os.Stdin
}

func stdout(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func stderr(cmd *cli.Command) io.Writer {
	if w := cmd.Root().ErrWriter; w != nil {
		return w
	}
	return os.Stderr
}
