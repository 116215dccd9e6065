// Package hubctl is the operator command line: schema migrations, account
// creation and ebook library chores, run directly against the server's
// database and file store.
package hubctl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hubpessoal/hub/internal/common"
	"github.com/hubpessoal/hub/internal/logging"
	"github.com/hubpessoal/hub/internal/server/config"
	"github.com/hubpessoal/hub/internal/server/models"
	"github.com/hubpessoal/hub/internal/server/services"
	"github.com/spf13/cobra"
)

type Registrar interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
}

type EbookAdmin interface {
	Sync(ctx context.Context, userID string) (*services.SyncResult, error)
	DownloadURL(ctx context.Context, userID, id string, ttl time.Duration) (string, error)
}

// Backend is what the commands operate on. Close releases it.
type Backend struct {
	Migrate  func(ctx context.Context) error
	Accounts Registrar
	Ebooks   EbookAdmin
	Close    func() error
}

// Opener builds a Backend from the loaded config.
type Opener func(ctx context.Context, cfg *config.Config, l logging.Logger) (*Backend, error)

type cli struct {
	open       Opener
	stdin      io.Reader
	stdinFD    int
	configPath string
	logLevel   string
	getenv     func(string) string

	logger  logging.Logger
	backend *Backend
}

// NewRootCmd builds the command tree. open is called lazily by the command
// that runs, and the backend is closed when it returns.
func NewRootCmd(open Opener, stdin io.Reader) *cobra.Command {
	c := &cli{open: open, stdin: stdin, stdinFD: int(os.Stdin.Fd()), getenv: os.Getenv}

	root := &cobra.Command{
		Use:           "hubctl",
		Short:         "Operator tools for the Hub server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "path to a JSON or YAML config file")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(c.migrateCmd(), c.userCmd(), c.ebooksCmd())
	return root
}

func (c *cli) connect(ctx context.Context, w io.Writer) (*Backend, error) {
	if c.backend != nil {
		return c.backend, nil
	}

	var args []string
	if c.configPath != "" {
		args = []string{"-c", c.configPath}
	}
	cfg, err := config.Load(args, c.getenv)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}

	c.logger = logging.New(w, cfg.LogLevel, "text")
	b, err := c.open(ctx, cfg, c.logger)
	if err != nil {
		return nil, err
	}
	c.backend = b
	return b, nil
}

func (c *cli) close() error {
	if c.backend == nil || c.backend.Close == nil {
		return nil
	}
	err := c.backend.Close()
	c.backend = nil
	return err
}

// withBackend runs fn against a connected backend and always releases it.
func (c *cli) withBackend(fn func(cmd *cobra.Command, b *Backend) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) (err error) {
		b, err := c.connect(cmd.Context(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer func() {
			if cerr := c.close(); err == nil {
				err = cerr
			}
		}()
		return fn(cmd, b)
	}
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: c.withBackend(func(cmd *cobra.Command, b *Backend) error {
			if err := b.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		}),
	}
}

func (c *cli) userCmd() *cobra.Command {
	user := &cobra.Command{Use: "user", Short: "Manage accounts"}

	var email string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an account; the password is prompted for or read from stdin",
		Args:  cobra.NoArgs,
		RunE: c.withBackend(func(cmd *cobra.Command, b *Backend) error {
			password, err := getPassword(c.stdin, c.stdinFD, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			u, err := b.Accounts.Register(cmd.Context(), email, password)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s)\n", u.ID, u.Email)
			return nil
		}),
	}
	create.Flags().StringVar(&email, "email", "", "account email")
	_ = create.MarkFlagRequired("email")

	user.AddCommand(create)
	return user
}

func (c *cli) ebooksCmd() *cobra.Command {
	ebooks := &cobra.Command{Use: "ebooks", Short: "Ebook library chores"}

	var userID string
	sync := &cobra.Command{
		Use:   "sync",
		Short: "Register files found in the user's storage folder",
		Args:  cobra.NoArgs,
		RunE: c.withBackend(func(cmd *cobra.Command, b *Backend) error {
			res, err := b.Ebooks.Sync(cmd.Context(), userID)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "synced %d of %d files\n", res.Synced, res.Total)
			return nil
		}),
	}
	sync.Flags().StringVar(&userID, "user", "", "owner user id")
	_ = sync.MarkFlagRequired("user")

	var (
		linkUser string
		ebookID  string
		ttl      time.Duration
	)
	link := &cobra.Command{
		Use:   "link",
		Short: "Print a time-limited download URL for one ebook",
		Args:  cobra.NoArgs,
		RunE: c.withBackend(func(cmd *cobra.Command, b *Backend) error {
			url, err := b.Ebooks.DownloadURL(cmd.Context(), linkUser, ebookID, ttl)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		}),
	}
	link.Flags().StringVar(&linkUser, "user", "", "owner user id")
	link.Flags().StringVar(&ebookID, "id", "", "ebook id")
	link.Flags().DurationVar(&ttl, "ttl", 15*time.Minute, "link lifetime")
	_ = link.MarkFlagRequired("user")
	_ = link.MarkFlagRequired("id")

	ebooks.AddCommand(sync, link)
	return ebooks
}

// describe turns service errors into operator-facing messages.
func describe(err error) error {
	var ve *common.ValidationError
	switch {
	case errors.As(err, &ve):
		return errors.New(ve.Message)
	case errors.Is(err, common.ErrorNotFound):
		return errors.New("not found")
	default:
		return err
	}
}
