package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/Hussein-Mazeh/passvault/internal/config"
	"github.com/Hussein-Mazeh/passvault/internal/vault"
)

var generatorFlags = []string{"-no-upper", "-no-lower", "-no-digits", "-no-symbols"}

// generatorOptions parses the class toggles shared by `pm generate` and the
// session gen command.
func generatorOptions(args []string, length int) (vault.GeneratorOptions, error) {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var noUpper, noLower, noDigits, noSymbols bool
	fs.BoolVar(&noUpper, "no-upper", false, "exclude uppercase letters")
	fs.BoolVar(&noLower, "no-lower", false, "exclude lowercase letters")
	fs.BoolVar(&noDigits, "no-digits", false, "exclude digits")
	fs.BoolVar(&noSymbols, "no-symbols", false, "exclude symbols")

	if err := fs.Parse(config.FilterArgs(args, generatorFlags)); err != nil {
		return vault.GeneratorOptions{}, userError{msg: "invalid generate arguments"}
	}
	return vault.GeneratorOptions{
		Length:       config.ClampLength(length),
		UseUppercase: !noUpper,
		UseLowercase: !noLower,
		UseDigits:    !noDigits,
		UseSymbols:   !noSymbols,
	}, nil
}

func runGenerate(args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return userError{msg: fmt.Sprintf("invalid arguments: %v", err)}
	}
	opts, err := generatorOptions(args, cfg.GeneratorLength)
	if err != nil {
		return err
	}
	pw, err := vault.GeneratePassword(opts)
	if err != nil {
		return err
	}
	fmt.Println(pw)
	return nil
}

func runInspect(ctx context.Context, args []string) error {
	_, svc, err := setup(ctx, args)
	if err != nil {
		return err
	}
	defer svc.Close()

	infos, err := svc.Inspect(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tCATEGORY\tSALT\tIV\tCIPHERTEXT\tMODIFIED")
	for _, in := range infos {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%d\t%s\n",
			in.ID, in.Title, in.Category, in.SaltLen, in.IVLen, in.CiphertextLen,
			in.LastModified.Local().Format(time.DateTime))
	}
	return w.Flush()
}
