// Command ohmylink edits a link-in-bio profile against an ohmylink server.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/and161185/ohmylink/internal/client"
	"github.com/and161185/ohmylink/internal/config"
	"github.com/and161185/ohmylink/internal/draft"
	"github.com/and161185/ohmylink/internal/draftfile"
	"github.com/and161185/ohmylink/internal/editor"
	"github.com/and161185/ohmylink/internal/logging"
	"github.com/and161185/ohmylink/internal/save"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

type globalFlags struct {
	config     string
	server     string
	caCert     string
	skipVerify bool
	plaintext  bool
	token      string
	draftPath  string
	verbose    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var g globalFlags
	root := &cobra.Command{
		Use:          "ohmylink",
		Short:        "Edit your ohmylink profile",
		SilenceUsage: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&g.config, "config", "", "config file (default "+config.DefaultPath()+")")
	pf.StringVar(&g.server, "server", "", "server address host:port")
	pf.StringVar(&g.caCert, "cacert", "", "CA certificate (PEM) used to verify the server")
	pf.BoolVar(&g.skipVerify, "insecure", false, "skip server certificate verification (dev)")
	pf.BoolVar(&g.plaintext, "plaintext", false, "connect without TLS (local dev)")
	pf.StringVar(&g.token, "token", "", "access token (default: the one saved by login)")
	pf.StringVar(&g.draftPath, "draft", "", "durable draft file")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newEditCmd(&g),
		newStatusCmd(&g),
		newLoginCmd(&g),
		newLogoutCmd(&g),
		newVersionCmd(),
	)
	return root
}

// loadEditorConfig reads the config and applies flags the user actually set.
func loadEditorConfig(cmd *cobra.Command, g *globalFlags) (config.Editor, error) {
	cfg, err := config.Load(g.config)
	if err != nil {
		return config.Editor{}, err
	}
	e := cfg.Editor
	fl := cmd.Flags()
	if fl.Changed("server") {
		e.Server = g.server
	}
	if fl.Changed("cacert") {
		e.CACert = g.caCert
	}
	if fl.Changed("insecure") {
		e.SkipVerify = g.skipVerify
	}
	if fl.Changed("plaintext") {
		e.Plaintext = g.plaintext
	}
	if fl.Changed("token") {
		e.Token = g.token
	}
	if fl.Changed("draft") {
		e.DraftPath = g.draftPath
	}
	if g.verbose {
		e.LogLevel = "debug"
	}
	return e, e.Validate()
}

// deps is everything an editing command needs.
type deps struct {
	cfg    config.Editor
	log    *zap.Logger
	client *client.Client
	sess   *editor.Session
}

func (d *deps) close() {
	_ = d.client.Close()
	_ = d.log.Sync()
}

func wire(cmd *cobra.Command, g *globalFlags) (*deps, error) {
	cfg, err := loadEditorConfig(cmd, g)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.LogLevel, true)
	if err != nil {
		return nil, err
	}
	if cfg.Token == "" {
		if cfg.Token, err = loadToken(); err != nil {
			return nil, err
		}
	}
	cl, err := client.Dial(client.Options{
		Addr:       cfg.Server,
		CACert:     cfg.CACert,
		SkipVerify: cfg.SkipVerify,
		Plaintext:  cfg.Plaintext,
		Token:      cfg.Token,
		Timeout:    cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.Server, err)
	}
	store := draft.NewStore(draftfile.New(cfg.DraftPath), log.Named("draft"))
	saver := save.New(cl, store, log.Named("save"), cfg.Parallelism)
	sess := editor.NewSession(cl, store, saver, log.Named("session"))
	return &deps{cfg: cfg, log: log, client: cl, sess: sess}, nil
}

func newEditCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Open the interactive editor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := wire(cmd, g)
			if err != nil {
				return err
			}
			defer d.close()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			in := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()
			res, err := d.sess.Open(ctx, resumePrompter(in, out, isTerminal(cmd.InOrStdin())))
			if err != nil {
				return err
			}
			if res == draft.ResolutionRestored {
				fmt.Fprintln(out, "restored unsaved changes from your last session")
			}

			guard := editor.NewGuard(d.sess.Dirty, out)
			guard.SetWindow(d.cfg.ConfirmWindow)
			sigs := make(chan os.Signal, 1)
			signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigs)
			go guard.Watch(ctx, sigs, cancel)

			err = newREPL(d.sess, guard, out, d.log).run(ctx, in)
			if errors.Is(err, context.Canceled) {
				fmt.Fprintln(out)
				return nil
			}
			return err
		},
	}
}

func newStatusCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show unsaved changes left from the last session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := wire(cmd, g)
			if err != nil {
				return err
			}
			defer d.close()
			if _, err := d.sess.Open(cmd.Context(), keepDraft); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), newView(cmd.OutOrStdout()).plan(d.sess.Pending()))
			return nil
		},
	}
}

func newLoginCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "login --token <token>",
		Short: "Save an access token for later commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if g.token == "" {
				return errors.New("--token is required")
			}
			exp, err := saveToken(g.token)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "token saved, expires %s\n", exp.Local().Format(time.RFC1123))
			return nil
		},
	}
}

func newLogoutCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved token and any unsaved draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadEditorConfig(cmd, g)
			if err != nil {
				return err
			}
			if err := draftfile.New(cfg.DraftPath).Clear(cmd.Context()); err != nil {
				return err
			}
			if err := removeToken(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ohmylink %s (%s)\n", version, buildDate)
		},
	}
}

// keepDraft restores leftover changes without asking.
var keepDraft = draft.PrompterFunc(func(context.Context, int) (draft.Choice, error) {
	return draft.ChoiceRestore, nil
})

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// resumePrompter asks on an interactive terminal and keeps the draft otherwise.
func resumePrompter(in *bufio.Reader, out io.Writer, interactive bool) draft.Prompter {
	if !interactive {
		return keepDraft
	}
	return draft.PrompterFunc(func(_ context.Context, pending int) (draft.Choice, error) {
		fmt.Fprintf(out, "You have %d unsaved change(s) from a previous session. Restore them? [Y/n] ", pending)
		line, err := in.ReadString('\n')
		if err != nil && line == "" {
			return draft.ChoiceRestore, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "n", "no", "d", "discard":
			return draft.ChoiceDiscard, nil
		default:
			return draft.ChoiceRestore, nil
		}
	})
}
