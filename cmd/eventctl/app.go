package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-eventhub/config"
	"github.com/oksasatya/go-eventhub/internal/controller"
	"github.com/oksasatya/go-eventhub/internal/eventapi"
	"github.com/oksasatya/go-eventhub/internal/session"
	"github.com/oksasatya/go-eventhub/pkg/helpers"
)

// app is the CLI's rendering surface: it shows notices, answers confirmations
// and turns navigation into hints.
type app struct {
	cfg    *config.Config
	logger *logrus.Logger
	api    *eventapi.Client
	sess   *session.Provider

	in       *bufio.Reader
	out      io.Writer
	errOut   io.Writer
	jsonOut  bool
	assumeOK bool
}

func newApp(ctx context.Context, cfg *config.Config, in io.Reader, out, errOut io.Writer, verbose bool) (*app, error) {
	logger := helpers.NewLogger("eventctl", cfg.Env)
	logger.SetOutput(errOut)
	if !verbose {
		logger.SetLevel(logrus.WarnLevel)
	}

	api := eventapi.New(cfg.APIBaseURL, eventapi.WithLogger(logger), eventapi.WithTimeout(cfg.RequestTimeout))
	sess := session.NewProvider(api, session.NewFileStore(cfg.SessionFile), logger)
	if err := sess.Init(ctx); err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	return &app{
		cfg:    cfg,
		logger: logger,
		api:    api,
		sess:   sess,
		in:     bufio.NewReader(in),
		out:    out,
		errOut: errOut,
	}, nil
}

func (a *app) Notify(kind controller.NoticeKind, msg string) {
	prefix := "✓"
	if kind == controller.NoticeError {
		prefix = "✗"
	}
	fmt.Fprintf(a.errOut, "%s %s\n", prefix, msg)
}

func (a *app) Confirm(prompt string) bool {
	if a.assumeOK {
		return true
	}
	fmt.Fprintf(a.errOut, "%s [y/N]: ", prompt)
	line, _ := a.in.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func (a *app) Navigate(path string) {
	switch path {
	case controller.RouteLogin:
		fmt.Fprintln(a.errOut, "Sign in first: eventctl login --email <email>")
	case controller.RouteAllEvents:
		fmt.Fprintln(a.errOut, "See all events: eventctl list")
	}
}

func (a *app) listOptions(owned bool) controller.Options {
	return controller.Options{OwnedOnly: owned, Notifier: a, Confirmer: a, Navigator: a, Logger: a.logger}
}

// readLine prompts on errOut and reads one trimmed line.
func (a *app) readLine(prompt string) string {
	fmt.Fprint(a.errOut, prompt)
	line, _ := a.in.ReadString('\n')
	return strings.TrimSpace(line)
}
