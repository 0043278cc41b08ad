package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Hussein-Mazeh/passvault/internal/config"
	"github.com/Hussein-Mazeh/passvault/internal/service"
	"github.com/Hussein-Mazeh/passvault/internal/sitecheck"
	"github.com/Hussein-Mazeh/passvault/internal/vault"
)

func runSession(ctx context.Context, args []string) error {
	cfg, svc, err := setup(ctx, args)
	if err != nil {
		return err
	}
	defer svc.Close()

	ok, err := svc.Initialized(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return userError{msg: "vault is not initialised; run pm master set first"}
	}

	pw, err := promptPassword("Enter master password: ")
	if err != nil {
		return fmt.Errorf("read master password: %w", err)
	}
	err = svc.Unlock(ctx, string(pw))
	zeroBytes(pw)
	if err != nil {
		return err
	}

	fmt.Println("session unlocked; type 'help' for commands")
	r := &repl{
		svc:       svc,
		out:       os.Stdout,
		errOut:    os.Stderr,
		prompt:    promptPassword,
		genLength: cfg.ClampedGeneratorLength(),
	}
	return r.run(ctx, os.Stdin)
}

// repl drives an unlocked session from line-oriented input.
type repl struct {
	svc       *service.Service
	out       io.Writer
	errOut    io.Writer
	prompt    promptFunc
	genLength int
}

func (r *repl) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(r.out, "pm> ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			fmt.Fprintln(r.out)
			return nil
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]

		var err error
		switch cmd {
		case "help":
			r.help()
		case "add":
			err = r.add(ctx, args)
		case "get":
			err = r.get(ctx, args)
		case "search", "list":
			err = r.search(ctx, args)
		case "delete", "rm":
			err = r.delete(ctx, args)
		case "gen":
			err = r.gen(args)
		case "lookup":
			err = r.lookup(ctx, args)
		case "rotate":
			err = r.rotate(ctx)
		case "audit":
			err = r.audit(ctx)
		case "lock":
			r.svc.Lock()
			fmt.Fprintln(r.out, "vault locked")
		case "unlock":
			err = r.unlock(ctx)
		case "exit", "quit":
			r.svc.Lock()
			return nil
		default:
			fmt.Fprintf(r.errOut, "unknown command: %s\n", cmd)
		}
		if err != nil {
			msg, _ := describeError(err)
			fmt.Fprintln(r.errOut, msg)
		}
	}
}

func (r *repl) add(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var e vault.NewEntry
	var generate bool
	fs.StringVar(&e.Title, "title", "", "entry title")
	fs.StringVar(&e.URL, "url", "", "site URL")
	fs.StringVar(&e.Username, "user", "", "username")
	fs.StringVar(&e.Notes, "notes", "", "notes")
	fs.StringVar(&e.Category, "category", "", "category")
	fs.BoolVar(&generate, "gen", false, "generate the password")

	if err := fs.Parse(args); err != nil {
		return userError{msg: "invalid add arguments"}
	}
	if e.Title == "" {
		return userError{msg: "add requires -title"}
	}
	if fs.NArg() != 0 {
		return userError{msg: "unexpected positional arguments"}
	}

	var secret string
	if generate {
		opts := vault.DefaultGeneratorOptions()
		opts.Length = config.ClampLength(r.genLength)
		pw, err := r.svc.GeneratePassword(opts)
		if err != nil {
			return err
		}
		secret = pw
	} else {
		pw, err := promptConfirmed(r.prompt, "Secret: ", "Confirm: ")
		if err != nil {
			return err
		}
		secret = string(pw)
		zeroBytes(pw)
	}

	id, err := r.svc.AddEntry(ctx, e, secret)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "stored %s (id=%d)\n", e.Title, id)
	if generate {
		fmt.Fprintf(r.out, "generated password: %s\n", secret)
	}
	return nil
}

func parseID(args []string, cmd string) (int64, error) {
	if len(args) != 1 {
		return 0, userError{msg: cmd + " requires an entry id"}
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, userError{msg: "invalid entry id: " + args[0]}
	}
	return id, nil
}

func (r *repl) get(ctx context.Context, args []string) error {
	id, err := parseID(args, "get")
	if err != nil {
		return err
	}
	e, err := r.svc.GetEntry(ctx, id)
	if err != nil {
		return err
	}
	if e == nil {
		fmt.Fprintf(r.errOut, "no entry with id %d\n", id)
		return nil
	}
	printEntry(r.out, e)
	return nil
}

func printEntry(w io.Writer, e *vault.Entry) {
	fmt.Fprintf(w, "title:    %s\n", e.Title)
	fmt.Fprintf(w, "url:      %s\n", e.URL)
	fmt.Fprintf(w, "username: %s\n", e.Username)
	fmt.Fprintf(w, "password: %s\n", e.Password)
	fmt.Fprintf(w, "category: %s\n", e.Category)
	if e.Notes != "" {
		fmt.Fprintf(w, "notes:    %s\n", e.Notes)
	}
}

func (r *repl) search(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var category string
	fs.StringVar(&category, "category", "", "category filter")
	if err := fs.Parse(args); err != nil {
		return userError{msg: "invalid search arguments"}
	}

	list, err := r.svc.SearchEntries(ctx, strings.Join(fs.Args(), " "), category)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(r.out, "no entries")
		return nil
	}
	printSummaries(r.out, list)
	return nil
}

func printSummaries(w io.Writer, list []vault.Summary) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tUSERNAME\tURL\tCATEGORY\tLAST USED")
	for _, s := range list {
		used := "never"
		if !s.LastAccessed.IsZero() {
			used = s.LastAccessed.Local().Format(time.DateTime)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", s.ID, s.Title, s.Username, s.URL, s.Category, used)
	}
	_ = tw.Flush()
}

func (r *repl) delete(ctx context.Context, args []string) error {
	id, err := parseID(args, "delete")
	if err != nil {
		return err
	}
	ok, err := r.svc.DeleteEntry(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintf(r.errOut, "no entry with id %d\n", id)
		return nil
	}
	fmt.Fprintf(r.out, "deleted %d\n", id)
	return nil
}

func (r *repl) gen(args []string) error {
	length := r.genLength
	rest := args
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return userError{msg: "invalid length: " + args[0]}
		}
		length, rest = n, args[1:]
	}
	opts, err := generatorOptions(rest, length)
	if err != nil {
		return err
	}
	pw, err := r.svc.GeneratePassword(opts)
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, pw)
	return nil
}

func (r *repl) lookup(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return userError{msg: "lookup requires a URL"}
	}
	e, err := r.svc.CredentialsForURL(ctx, args[0])
	if err != nil {
		return err
	}
	if e == nil {
		fmt.Fprintf(r.errOut, "no credentials for %s\n", args[0])
		return nil
	}
	if v := sitecheck.Check(args[0], sitecheck.Site(sitecheck.Host(e.URL))); !v.OK {
		fmt.Fprintf(r.errOut, "warning: %s\n", strings.Join(v.Reasons, ", "))
	}
	printEntry(r.out, e)
	return nil
}

func (r *repl) rotate(ctx context.Context) error {
	oldPw, err := r.prompt("Old master password: ")
	if err != nil {
		return fmt.Errorf("read old master password: %w", err)
	}
	defer zeroBytes(oldPw)

	newPw, err := promptConfirmed(r.prompt, "New master password: ", "Confirm new master password: ")
	if err != nil {
		return err
	}
	defer zeroBytes(newPw)

	n, err := r.svc.Rotate(ctx, string(oldPw), string(newPw))
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "master password changed; %d entries re-encrypted\n", n)
	return nil
}

func (r *repl) audit(ctx context.Context) error {
	rep, err := r.svc.Audit(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(r.out, "%d entries audited\n", rep.Total)
	section := func(title string, list []vault.Summary) {
		if len(list) == 0 {
			return
		}
		fmt.Fprintf(r.out, "%s:\n", title)
		for _, s := range list {
			fmt.Fprintf(r.out, "  %d %s\n", s.ID, s.Title)
		}
	}
	section("weak passwords", rep.Weak)
	section("not changed recently", rep.Stale)
	for i, group := range rep.Reused {
		section(fmt.Sprintf("reused password #%d", i+1), group)
	}
	for _, b := range rep.Breached {
		fmt.Fprintf(r.out, "breached: %d %s (seen %d times)\n", b.ID, b.Title, b.Count)
	}
	if rep.BreachErrors > 0 {
		fmt.Fprintf(r.errOut, "%d breach lookups failed\n", rep.BreachErrors)
	}
	return nil
}

func (r *repl) unlock(ctx context.Context) error {
	pw, err := r.prompt("Enter master password: ")
	if err != nil {
		return fmt.Errorf("read master password: %w", err)
	}
	defer zeroBytes(pw)
	if err := r.svc.Unlock(ctx, string(pw)); err != nil {
		return err
	}
	fmt.Fprintln(r.out, "vault unlocked")
	return nil
}

func (r *repl) help() {
	fmt.Fprintln(r.out, "Commands:")
	fmt.Fprintln(r.out, "  add -title <title> [-url <url>] [-user <username>] [-notes <text>] [-category <name>] [-gen]")
	fmt.Fprintln(r.out, "  get <id>")
	fmt.Fprintln(r.out, "  search [-category <name>] [query]")
	fmt.Fprintln(r.out, "  delete <id>")
	fmt.Fprintln(r.out, "  gen [length] [-no-upper] [-no-lower] [-no-digits] [-no-symbols]")
	fmt.Fprintln(r.out, "  lookup <url>")
	fmt.Fprintln(r.out, "  rotate")
	fmt.Fprintln(r.out, "  audit")
	fmt.Fprintln(r.out, "  lock | unlock")
	fmt.Fprintln(r.out, "  exit | quit")
}
