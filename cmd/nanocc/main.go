// Command nanocc is the thin driver CLI wrapping the nanocc compiler
// core: it owns argument parsing, file I/O, and diagnostic rendering.
// The five subcommands below exist because the core reacts to their
// requests; dump-tokens/dump-ast/dump-ast-simple are owned by an
// external lexer/parser front end this repository does not implement.
// dump-tokens therefore fails with a not-implemented error, and
// dump-ast/dump-ast-simple print what this driver can still offer (a
// structural decode via internal/astdecode) rather than the full
// front-end behavior.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"golang.org/x/term"

	"nanocc/internal/diag"
	"nanocc/internal/irbinary"
	"nanocc/internal/irdump"
)

var log = commonlog.GetLogger("nanocc")

func main() {
	if len(os.Args) != 3 {
		fmt.Println("Usage: nanocc <subcommand> <input-file>")
		fmt.Println("Subcommands: dump-tokens, dump-ast, dump-ast-simple, dump-ir, read-ir")
		os.Exit(1)
	}

	subcommand, path := os.Args[1], os.Args[2]

	cfg, err := loadConfig()
	if err != nil {
		color.Red("failed to read .nanocc.yaml: %s", err)
		os.Exit(1)
	}
	colorEnabled := cfg.ColoredDump && term.IsTerminal(int(os.Stdout.Fd()))
	color.NoColor = !colorEnabled

	commonlog.Configure(1, nil)
	log.Infof("running %s on %s", subcommand, path)

	var runErr error
	switch subcommand {
	case "dump-tokens":
		runErr = errNotImplemented("dump-tokens", "tokenization is owned by an external lexer front end")
	case "dump-ast":
		runErr = runDumpAST(path, false)
	case "dump-ast-simple":
		runErr = runDumpAST(path, true)
	case "dump-ir":
		runErr = runDumpIR(path)
	case "read-ir":
		runErr = runReadIR(path)
	default:
		runErr = fmt.Errorf("unknown subcommand %q", subcommand)
	}

	if runErr != nil {
		color.Red("✗ %s", runErr)
		os.Exit(1)
	}
	color.Green("✓ %s %s", subcommand, path)
}

func errNotImplemented(subcommand, reason string) error {
	return fmt.Errorf("%s: %s (not implemented by this core)", subcommand, reason)
}

func openInput(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	return f, nil
}

func runDumpAST(path string, simple bool) error {
	f, err := openInput(path)
	if err != nil {
		return err
	}
	defer f.Close()

	decls, err := decodeASTFile(f)
	if err != nil {
		return err
	}

	for _, d := range decls {
		if simple {
			fmt.Printf("%T\n", d)
		} else {
			fmt.Printf("%+v\n", d)
		}
	}
	return nil
}

func runDumpIR(path string) error {
	f, err := openInput(path)
	if err != nil {
		return err
	}
	defer f.Close()

	bag := &diag.Bag{}
	unit, err := compile(f, bag)
	if err != nil {
		return errors.Wrap(err, "compiling")
	}
	if bag.HasErrors() {
		reportDiagnostics(path, bag)
		return fmt.Errorf("compilation failed with %d diagnostic(s)", len(bag.Diagnostics))
	}

	fmt.Print(irdump.Unit(unit))
	return nil
}

func runReadIR(path string) error {
	f, err := openInput(path)
	if err != nil {
		return err
	}
	defer f.Close()

	unit, err := irbinary.ReadUnit(f)
	if err != nil {
		return errors.Wrap(err, "reading binary IR")
	}
	fmt.Print(irdump.Unit(unit))
	return nil
}

func reportDiagnostics(path string, bag *diag.Bag) {
	reporter := diag.NewReporter(path, "")
	for _, d := range bag.Diagnostics {
		fmt.Print(reporter.Format(d))
	}
}
