// Command contract-transcode encodes contract calls and decodes return
// values, events and calls using a contract's metadata.
//
//	contract-transcode -m erc20.json encode transfer 0xd435...a27d 1000
//	contract-transcode -m erc20.json decode-return transfer 0x00
//	contract-transcode -m erc20.json decode-event 0x00d435...
package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	transcode "github.com/branched-services/go-ink-transcode"
)

var version = "dev"

// app carries the state shared by all subcommands of one invocation.
type app struct {
	cfg    config
	log    *zap.Logger
	out    *printer
	errOut *printer

	contract *transcode.Contract

	// failedText is the literal an argument error refers to, if any.
	failedText string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line args and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	a := &app{log: zap.NewNop()}
	a.errOut = newPrinter(stderr, "auto", false)

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		a.errOut.failure(err, a.failedText)
		return 1
	}
	return 0
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "contract-transcode",
		Short:         "Encode and decode smart contract calls from metadata",
		Long:          `contract-transcode converts between literal argument text and the SCALE encoding of contract calls, return values and events.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (default contract-transcode.yaml or .toml in the working directory)")
	pf.StringP("metadata", "m", "", "contract metadata (.json) or bundle (.contract)")
	pf.Bool("pretty", false, "print values over multiple indented lines")
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.String("log-level", "warn", "log level (debug|info|warn|error)")
	pf.Int("max-depth", 0, "maximum type nesting depth (0 keeps the default)")
	pf.Bool("lenient", false, "ignore undeclared fields when encoding maps")

	root.AddCommand(
		newEncodeCmd(a),
		newDecodeReturnCmd(a),
		newDecodeEventCmd(a),
		newDecodeCallCmd(a),
		newEncodeValueCmd(a),
		newDecodeValueCmd(a),
		newInfoCmd(a),
		newVerifyCmd(a),
		newCompatCmd(a),
	)
	return root
}

// setup loads the configuration, applies flag overrides and builds the
// logger and printers.
func (a *app) setup(cmd *cobra.Command) error {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	cfg, err := loadConfig(path)
	if err != nil {
		return err
	}

	if flags.Changed("metadata") {
		cfg.Metadata, _ = flags.GetString("metadata")
	}
	if flags.Changed("pretty") {
		cfg.Pretty, _ = flags.GetBool("pretty")
	}
	if flags.Changed("color") {
		cfg.Color, _ = flags.GetString("color")
	}
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("max-depth") {
		cfg.MaxDepth, _ = flags.GetInt("max-depth")
	}
	if flags.Changed("lenient") {
		cfg.LenientFields, _ = flags.GetBool("lenient")
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	log, err := newLogger(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = log
	a.out = newPrinter(cmd.OutOrStdout(), cfg.Color, cfg.Pretty)
	a.errOut = newPrinter(cmd.ErrOrStderr(), cfg.Color, false)
	return nil
}
