package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/oksasatya/go-eventhub/config"
	"github.com/oksasatya/go-eventhub/internal/controller"
	"github.com/oksasatya/go-eventhub/internal/domain/entity"
	"github.com/oksasatya/go-eventhub/internal/eventapi"
	"github.com/oksasatya/go-eventhub/internal/eventform"
	"github.com/oksasatya/go-eventhub/internal/session"
)

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	var (
		a        *app
		apiURL   string
		sessFile string
		verbose  bool
		jsonOut  bool
		yes      bool
	)

	root := &cobra.Command{
		Use:           "eventctl",
		Short:         "Browse and manage EventHub events",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			if apiURL != "" {
				cfg.APIBaseURL = apiURL
			}
			if sessFile != "" {
				cfg.SessionFile = sessFile
			}
			var err error
			a, err = newApp(cmd.Context(), cfg, in, out, errOut, verbose)
			if err != nil {
				return err
			}
			a.jsonOut = jsonOut
			a.assumeOK = yes
			return nil
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&apiURL, "api", "", "API base URL (default $API_BASE_URL)")
	pf.StringVar(&sessFile, "session-file", "", "where the session token is kept (default $SESSION_FILE)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "log API requests")
	pf.BoolVar(&jsonOut, "json", false, "print JSON instead of tables")
	pf.BoolVarP(&yes, "yes", "y", false, "answer yes to confirmations")

	get := func() *app { return a }
	root.AddCommand(
		loginCmd(get),
		registerCmd(get),
		logoutCmd(get),
		whoamiCmd(get),
		listCmd(get),
		showCmd(get),
		createCmd(get),
		editCmd(get),
		deleteCmd(get),
		searchCmd(get),
	)
	return root
}

func loginCmd(get func() *app) *cobra.Command {
	var email, password, name, secret string
	var google bool
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password, or with a Google identity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			if email == "" {
				email = a.readLine("Email: ")
			}
			var (
				s   *session.Session
				err error
			)
			if google {
				s, err = a.sess.SignInWithGoogle(cmd.Context(), eventapi.GoogleIdentity{Name: name, Email: email}, secret)
			} else {
				if password == "" {
					password = a.readLine("Password: ")
				}
				s, err = a.sess.SignIn(cmd.Context(), email, password)
			}
			switch {
			case errors.Is(err, eventapi.ErrUnauthorized):
				return errors.New("invalid credentials")
			case errors.Is(err, eventapi.ErrForbidden):
				return errors.New("google sign-in was refused; check --secret")
			case err != nil:
				return err
			}
			a.Notify(controller.NoticeSuccess, "Signed in as "+s.User.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when empty)")
	cmd.Flags().BoolVar(&google, "google", false, "sign in with a provider-verified Google identity")
	cmd.Flags().StringVar(&name, "name", "", "display name for --google")
	cmd.Flags().StringVar(&secret, "secret", "", "identity upsert secret for --google")
	return cmd
}

func registerCmd(get func() *app) *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			if _, err := a.api.Register(cmd.Context(), name, email, password); err != nil {
				if eventapi.StatusOf(err) == 409 {
					return errors.New("user already exists")
				}
				return fmt.Errorf("registration failed: %w", err)
			}
			s, err := a.sess.SignIn(cmd.Context(), email, password)
			if err != nil {
				a.Notify(controller.NoticeSuccess, "Registration complete! Please sign in.")
				return nil
			}
			a.Notify(controller.NoticeSuccess, "Registration complete! Signed in as "+s.User.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name (at least 2 characters)")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "at least 6 characters with upper, lower case and a digit")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func logoutCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			if err := a.sess.SignOut(cmd.Context()); err != nil {
				return err
			}
			a.Notify(controller.NoticeSuccess, "Signed out")
			return nil
		},
	}
}

func whoamiCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			u, err := a.sess.User()
			if err != nil {
				a.Navigate(controller.RouteLogin)
				return err
			}
			if a.jsonOut {
				return printJSON(a.out, u)
			}
			fmt.Fprintf(a.out, "%s <%s> (%s)\n", u.Name, u.Email, u.ID)
			return nil
		},
	}
}

func listCmd(get func() *app) *cobra.Command {
	var search, category string
	var mine bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List events, optionally filtered",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			l := controller.NewList(a.api, a.sess, a.listOptions(mine))
			defer l.Unmount()
			if err := l.Load(cmd.Context()); err != nil {
				if msg := l.Err(); msg != "" {
					return errors.New(msg)
				}
				return err
			}
			l.SetSearch(search)
			l.SetCategory(category)
			return a.printEvents(l.Filtered(), l.Categories())
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "match title or short description")
	cmd.Flags().StringVarP(&category, "category", "c", entity.CategoryAll, "category filter")
	cmd.Flags().BoolVar(&mine, "mine", false, "only events you organize")
	return cmd
}

func searchCmd(get func() *app) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search on the server",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			q := ""
			if len(args) == 1 {
				q = args[0]
			}
			events, err := a.api.Search(cmd.Context(), q, category)
			if err != nil {
				return err
			}
			return a.printEvents(events, nil)
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", entity.CategoryAll, "category filter")
	return cmd
}

func showCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			d := controller.NewDetails(a.api, args[0], a.logger)
			if err := d.Load(cmd.Context()); err != nil {
				return errors.New(d.Err())
			}
			return a.printEvent(*d.Event(), d.DisplayImage())
		},
	}
}

// draftFlags binds one flag per form field.
type draftFlags struct {
	values map[string]*string
}

func bindDraftFlags(cmd *cobra.Command) *draftFlags {
	df := &draftFlags{values: map[string]*string{}}
	add := func(field, flag, usage string) {
		df.values[field] = cmd.Flags().String(flag, "", usage)
	}
	add(eventform.FieldTitle, "title", "event title")
	add(eventform.FieldShortDescription, "short", "short description")
	add(eventform.FieldFullDescription, "full", "full description")
	add(eventform.FieldPrice, "price", "ticket price, 0 for free")
	add(eventform.FieldDate, "date", "start time as 2006-01-02T15:04 (UTC) or RFC3339")
	add(eventform.FieldCategory, "category", "one of Technology, Music, Business, Sports, Arts, Food, Education, Health")
	add(eventform.FieldLocation, "location", "where it happens")
	add(eventform.FieldImageURL, "image", "image URL")
	return df
}

// apply copies the flags the user actually set onto the editor.
func (df *draftFlags) apply(cmd *cobra.Command, ed *controller.Editor) {
	flagOf := map[string]string{
		eventform.FieldTitle:            "title",
		eventform.FieldShortDescription: "short",
		eventform.FieldFullDescription:  "full",
		eventform.FieldPrice:            "price",
		eventform.FieldDate:             "date",
		eventform.FieldCategory:         "category",
		eventform.FieldLocation:         "location",
		eventform.FieldImageURL:         "image",
	}
	for field, v := range df.values {
		if cmd.Flags().Changed(flagOf[field]) {
			ed.Set(field, *v)
		}
	}
}

func submit(cmd *cobra.Command, a *app, ed *controller.Editor) error {
	e, err := ed.Submit(cmd.Context())
	if errors.Is(err, controller.ErrInvalidDraft) {
		for field, msg := range ed.Errors().Map() {
			fmt.Fprintf(a.errOut, "  %s: %s\n", field, msg)
		}
		return err
	}
	if err != nil {
		return err
	}
	return a.printEvent(*e, e.DisplayImage())
}

func createCmd(get func() *app) *cobra.Command {
	var df *draftFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an event you organize",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			ed, err := controller.NewEditor(a.api, a.sess, controller.EditorOptions{Notifier: a, Navigator: a, Logger: a.logger})
			if err != nil {
				return err
			}
			df.apply(cmd, ed)
			return submit(cmd, a, ed)
		},
	}
	df = bindDraftFlags(cmd)
	return cmd
}

func editCmd(get func() *app) *cobra.Command {
	var df *draftFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit an event you organize; unset flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			l := controller.NewList(a.api, a.sess, a.listOptions(false))
			defer l.Unmount()
			if err := l.Load(cmd.Context()); err != nil {
				return err
			}
			ed, err := l.Edit(args[0])
			if err != nil {
				return err
			}
			df.apply(cmd, ed)
			return submit(cmd, a, ed)
		},
	}
	df = bindDraftFlags(cmd)
	return cmd
}

func deleteCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete an event you organize",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			l := controller.NewList(a.api, a.sess, a.listOptions(false))
			defer l.Unmount()
			if err := l.Load(cmd.Context()); err != nil {
				return err
			}
			return l.Delete(cmd.Context(), args[0])
		},
	}
}
