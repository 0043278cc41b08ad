package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/awnumar/memguard"

	"github.com/Hussein-Mazeh/passvault/auth"
	"github.com/Hussein-Mazeh/passvault/internal/config"
	"github.com/Hussein-Mazeh/passvault/internal/logging"
	"github.com/Hussein-Mazeh/passvault/internal/service"
	"github.com/Hussein-Mazeh/passvault/internal/vault"
)

const cliVersion = "0.2.0"

type userError struct {
	msg string
}

func (e userError) Error() string { return e.msg }

func main() {
	memguard.CatchInterrupt()
	defer memguard.Purge()

	if len(os.Args) < 2 {
		printUsage()
		exit(1)
	}

	ctx := context.Background()
	var err error
	switch os.Args[1] {
	case "version":
		fmt.Println(cliVersion)
	case "master":
		if len(os.Args) < 3 {
			printMasterUsage()
			exit(1)
		}
		switch os.Args[2] {
		case "set":
			err = runMasterSet(ctx, os.Args[3:])
		case "change":
			err = runMasterChange(ctx, os.Args[3:])
		default:
			printMasterUsage()
			exit(1)
		}
	case "generate":
		err = runGenerate(os.Args[2:])
	case "inspect":
		err = runInspect(ctx, os.Args[2:])
	case "session":
		err = runSession(ctx, os.Args[2:])
	default:
		printUsage()
		exit(1)
	}
	handleError(err)
}

// exit purges memguard state before leaving; deferred calls do not run on os.Exit.
func exit(code int) {
	memguard.Purge()
	os.Exit(code)
}

func handleError(err error) {
	if err == nil {
		return
	}
	msg, code := describeError(err)
	fmt.Fprintln(os.Stderr, msg)
	exit(code)
}

// describeError turns an error into a user-facing line and exit code. Expected
// failures exit 1; anything else is unexpected and exits 2.
func describeError(err error) (string, int) {
	var uerr userError
	if errors.As(err, &uerr) {
		return uerr.Error(), 1
	}
	switch vault.KindOf(err) {
	case "authentication":
		return "failed to unlock vault", 1
	case "locked":
		return "vault is locked; run unlock first", 1
	case "configuration", "validation", "not_found":
		return err.Error(), 1
	case "storage":
		return fmt.Sprintf("storage error: %v", err), 2
	case "crypto":
		return "could not decrypt: wrong master password or corrupted data", 2
	}
	return fmt.Sprintf("unexpected error: %v", err), 2
}

// setup loads configuration from args and opens the vault service.
func setup(ctx context.Context, args []string) (*config.Config, *service.Service, error) {
	cfg, err := config.Load(args)
	if err != nil {
		return nil, nil, userError{msg: fmt.Sprintf("invalid arguments: %v", err)}
	}

	log, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, userError{msg: err.Error()}
	}

	opts := service.Options{
		LockTimeout: cfg.LockTimeout,
		Logger:      log,
		AuditMaxAge: cfg.AuditMaxAge,
	}
	if cfg.BreachCheck {
		opts.Breaches = auth.NewBreachChecker(cfg.BreachAPIURL, nil)
	}

	svc, err := service.New(ctx, cfg.VaultDir, opts)
	if err != nil {
		return nil, nil, err
	}
	return cfg, svc, nil
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: pm <command> [flags]")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  version")
	fmt.Fprintln(os.Stderr, "  master set       initialise the vault with a master password")
	fmt.Fprintln(os.Stderr, "  master change    rotate the master password and re-encrypt all entries")
	fmt.Fprintln(os.Stderr, "  generate         print a random password")
	fmt.Fprintln(os.Stderr, "  inspect          list stored entries without decrypting them")
	fmt.Fprintln(os.Stderr, "  session          unlock the vault and start an interactive session")
	fmt.Fprintln(os.Stderr, "Flags: -dir <vault-dir> -c <config.json> -lock-timeout 10s -log-level info")
	fmt.Fprintln(os.Stderr, "       -log-format text|json -audit-max-age 2160h -breach-check -length 16")
}

func printMasterUsage() {
	fmt.Fprintln(os.Stderr, "Usage: pm master <set|change> [-dir <vault-dir>]")
}
