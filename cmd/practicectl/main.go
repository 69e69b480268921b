// Command practicectl runs operator tasks against the practice database:
// schema migration, creating an admin and resetting a password.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"practice/internal/adapters/storage"
	accountStore "practice/internal/adapters/storage/account"
	auditStore "practice/internal/adapters/storage/audit"
	"practice/internal/application/orchestrators"
	"practice/internal/domain/account"
	"practice/internal/domain/audit"
)

// readPassword reads without echo; replaced in tests.
var readPassword = term.ReadPassword

// isTerminal reports whether fd is a terminal; replaced in tests.
var isTerminal = term.IsTerminal

const usage = `usage: practicectl [-db path] <command> [args]

commands:
  migrate                  apply pending schema migrations
  create-admin <email>     create an admin account, prompting for the password
  reset-password <email>   set a new password and clear any lockout
`

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "practicectl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin *os.File, stdout io.Writer) error {
	fs := flag.NewFlagSet("practicectl", flag.ContinueOnError)
	fs.SetOutput(stdout)
	fs.Usage = func() { fmt.Fprint(stdout, usage) }
	dbPath := fs.String("db", envOr("PRACTICE_DB_PATH", "practice.db"), "SQLite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("missing command")
	}

	db, err := storage.Open(*dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := storage.MigrateDB(db, *dbPath); err != nil {
		return err
	}
	accounts := accountStore.NewSQLiteStore(db)
	record := func(action audit.Action, acct account.Account, desc string) error {
		event := audit.NewEvent(time.Now(), "", "", "", audit.CategoryAccount, action).
			WithSeverity(audit.SeverityWarning).WithResource("account", acct.ID).WithDescription(desc)
		return orchestrators.ExecuteRecordAudit(ctx, event, orchestrators.RecordAuditDeps{AuditStore: auditStore.NewSQLiteStore(db)})
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "migrate":
		version, err := storage.SchemaVersion(db)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "schema at version %d\n", version)
		return nil
	case "create-admin", "reset-password":
		if len(rest) != 1 {
			return fmt.Errorf("%s needs exactly one email argument", cmd)
		}
		password, err := promptNewPassword(stdin, stdout)
		if err != nil {
			return err
		}
		if cmd == "create-admin" {
			acct, err := orchestrators.ExecuteCreateAccount(ctx, orchestrators.CreateAccountInput{
				Email:    rest[0],
				Password: password,
				Role:     account.RoleAdmin,
			}, orchestrators.CreateAccountDeps{AccountStore: accounts})
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "created admin %s (%s)\n", acct.Email, acct.ID)
			return record(audit.ActionCreate, acct, "Admin "+acct.Email+" created by practicectl")
		}
		acct, err := orchestrators.ExecuteResetPassword(ctx, rest[0], password, accounts)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "password reset for %s\n", acct.Email)
		return record(audit.ActionUpdate, acct, "Password reset by practicectl")
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// promptNewPassword asks for a password twice without echo. When stdin is not a
// terminal the first line is taken as the password so the command can be scripted.
func promptNewPassword(stdin *os.File, w io.Writer) (string, error) {
	fd := int(stdin.Fd())
	if !isTerminal(fd) {
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	fmt.Fprint(w, "New password: ")
	first, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	fmt.Fprint(w, "Repeat password: ")
	second, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
