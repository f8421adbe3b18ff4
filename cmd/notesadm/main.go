// Command notesadm performs maintenance tasks against the notes database.
package main

import (
	"bufio"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"notes-api/internal/config"
	"notes-api/internal/domain"
	"notes-api/internal/logging"
	"notes-api/internal/repository"
	"notes-api/internal/repository/sqlite"
	"notes-api/internal/service"
	"notes-api/internal/storage"
)

const configKey = "config"

func main() {
	if err := newApp(os.Stdin, os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "notesadm",
		Usage:     "notes-api maintenance tool",
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "db",
				Usage: "SQLite database path (defaults to database.path from the config)",
			},
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			c.App.Metadata = map[string]any{configKey: cfg}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Apply pending schema migrations",
				Action: migrateAction,
			},
			{
				Name:  "create-user",
				Usage: "Register a user account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Display name", Required: true},
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Login email", Required: true},
					&cli.StringFlag{Name: "password", Usage: "Password (prompted when omitted)"},
				},
				Action: createUserAction,
			},
			{
				Name:  "revoke-sessions",
				Usage: "Log a user out everywhere",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email", Required: true},
				},
				Action: revokeSessionsAction,
			},
			{
				Name:   "sweep-sessions",
				Usage:  "Delete expired sessions",
				Action: sweepSessionsAction,
			},
			{
				Name:  "purge-exports",
				Usage: "Delete every stored export of a user",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email", Required: true},
				},
				Action: purgeExportsAction,
			},
		},
	}
}

type adminEnv struct {
	cfg    config.Config
	logger *logrus.Logger
	db     *sql.DB
}

func (e *adminEnv) Close() error {
	return e.db.Close()
}

func (e *adminEnv) sessions() service.SessionService {
	return service.NewSessionService(sqlite.NewSessionRepository(e.db), e.cfg.SessionTTL(), e.logger)
}

func openEnv(c *cli.Context) (*adminEnv, error) {
	cfg, ok := c.App.Metadata[configKey].(config.Config)
	if !ok {
		return nil, errors.New("configuration not loaded")
	}

	logger, err := logging.New(c.App.ErrWriter, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	path := cfg.Database.Path
	if p := c.String("db"); p != "" {
		path = p
	}

	db, err := sqlite.OpenAndMigrate(c.Context, path, logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &adminEnv{cfg: cfg, logger: logger, db: db}, nil
}

func migrateAction(c *cli.Context) error {
	env, err := openEnv(c)
	if err != nil {
		return err
	}
	defer env.Close()

	fmt.Fprintln(c.App.Writer, "Schema is up to date")
	return nil
}

func createUserAction(c *cli.Context) error {
	env, err := openEnv(c)
	if err != nil {
		return err
	}
	defer env.Close()

	password := c.String("password")
	if password == "" {
		fmt.Fprint(c.App.Writer, "Password: ")
		password, err = readPassword(c.App.Reader)
		fmt.Fprintln(c.App.Writer)
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
	}

	users := service.NewUserService(sqlite.NewUserRepository(env.db))
	user, err := users.Register(c.Context, service.RegisterInput{
		Name:     c.String("name"),
		Email:    c.String("email"),
		Password: password,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "User %s created with ID %d\n", user.Email, user.ID)
	return nil
}

func revokeSessionsAction(c *cli.Context) error {
	env, err := openEnv(c)
	if err != nil {
		return err
	}
	defer env.Close()

	user, err := lookupUser(c, env)
	if err != nil {
		return err
	}

	revoked, err := env.sessions().RevokeAll(c.Context, user.ID)
	if err != nil {
		return err
	}
	if !revoked {
		fmt.Fprintf(c.App.Writer, "No active sessions for %s\n", user.Email)
		return nil
	}
	fmt.Fprintf(c.App.Writer, "Revoked sessions of %s\n", user.Email)
	return nil
}

func sweepSessionsAction(c *cli.Context) error {
	env, err := openEnv(c)
	if err != nil {
		return err
	}
	defer env.Close()

	n, err := env.sessions().Sweep(c.Context)
	if err != nil {
		return fmt.Errorf("sweep sessions: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Purged %d expired sessions\n", n)
	return nil
}

func purgeExportsAction(c *cli.Context) error {
	env, err := openEnv(c)
	if err != nil {
		return err
	}
	defer env.Close()

	if !env.cfg.ExportsEnabled() {
		return errors.New("storage bucket is not configured")
	}

	user, err := lookupUser(c, env)
	if err != nil {
		return err
	}

	store, err := storage.NewS3ServiceFromOptions(c.Context, storage.S3Options{
		Region:   env.cfg.Storage.Region,
		Endpoint: env.cfg.Storage.Endpoint,
		Profile:  env.cfg.AWS.Profile,
	})
	if err != nil {
		return err
	}

	exports := service.NewExportService(service.NewNoteService(sqlite.NewNoteRepository(env.db)), store, service.ExportConfig{
		Bucket:    env.cfg.Storage.Bucket,
		KeyPrefix: env.cfg.Storage.KeyPrefix,
	})
	if err := exports.Purge(c.Context, user.ID); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Purged exports of %s\n", user.Email)
	return nil
}

func lookupUser(c *cli.Context, env *adminEnv) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(c.String("email")))
	user, err := sqlite.NewUserRepository(env.db).GetByEmail(c.Context, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("user %s not found", email)
		}
		return nil, err
	}
	return user, nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
