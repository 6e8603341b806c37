package main

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	transcode "github.com/branched-services/go-ink-transcode"
	"github.com/branched-services/go-ink-transcode/registry"
)

// loadContract loads the configured metadata once per invocation.
func (a *app) loadContract() (*transcode.Contract, error) {
	if a.contract != nil {
		return a.contract, nil
	}
	if a.cfg.Metadata == "" {
		return nil, errors.New("no metadata: pass --metadata or set metadata in the config file")
	}
	opts := []transcode.Option{
		transcode.WithLogger(a.log),
		transcode.WithMaxDepth(a.cfg.MaxDepth),
	}
	if a.cfg.LenientFields {
		opts = append(opts, transcode.WithLenientFields())
	}
	c, err := transcode.LoadContract(a.cfg.Metadata, opts...)
	if err != nil {
		return nil, err
	}
	a.log.Debug("metadata loaded",
		zap.String("path", a.cfg.Metadata),
		zap.Int("types", c.Registry().Len()))
	a.contract = c
	return c, nil
}

func (a *app) transcoder() (*transcode.Transcoder, error) {
	c, err := a.loadContract()
	if err != nil {
		return nil, err
	}
	return c.Transcoder(), nil
}

// noteArgument remembers the literal a failed argument came from so the
// error output can point into it.
func (a *app) noteArgument(err error, args []string) error {
	var ae *transcode.ArgumentError
	if errors.As(err, &ae) && ae.Index >= 0 && ae.Index < len(args) {
		a.failedText = args[ae.Index]
	}
	return err
}

func parseHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid hex input %q", s)
	}
	return b, nil
}

func parseTypeID(s string) (registry.TypeID, error) {
	n, err := strconv.ParseUint(strings.TrimPrefix(s, "#"), 10, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid type id %q", s)
	}
	return registry.TypeID(n), nil
}

func callableKind(constructor bool) registry.CallableKind {
	if constructor {
		return registry.Constructor
	}
	return registry.Message
}

func newEncodeCmd(a *app) *cobra.Command {
	var constructor bool
	cmd := &cobra.Command{
		Use:   "encode <message> [args...]",
		Short: "Encode a message or constructor call",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tc, err := a.transcoder()
			if err != nil {
				return err
			}
			name, literals := args[0], args[1:]
			var data []byte
			if constructor {
				data, err = tc.EncodeConstructor(name, literals)
			} else {
				data, err = tc.EncodeCall(name, literals)
			}
			if err != nil {
				return a.noteArgument(err, literals)
			}
			a.out.line("%s", hexutil.Encode(data))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&constructor, "constructor", "c", false, "encode a constructor instead of a message")
	return cmd
}

func newDecodeReturnCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "decode-return <message> <hex>",
		Short: "Decode the return value of a message",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tc, err := a.transcoder()
			if err != nil {
				return err
			}
			data, err := parseHex(args[1])
			if err != nil {
				return err
			}
			v, err := tc.DecodeReturnValue(args[0], data)
			if err != nil {
				return err
			}
			a.out.value(v)
			return nil
		},
	}
}

func newDecodeEventCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "decode-event <hex>",
		Short: "Decode event data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tc, err := a.transcoder()
			if err != nil {
				return err
			}
			data, err := parseHex(args[0])
			if err != nil {
				return err
			}
			ev, err := tc.DecodeEventCall(data)
			if err != nil {
				return err
			}
			a.out.value(ev.Value())
			return nil
		},
	}
}

func newDecodeCallCmd(a *app) *cobra.Command {
	var constructor bool
	cmd := &cobra.Command{
		Use:   "decode-call <hex>",
		Short: "Decode an encoded message or constructor call",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tc, err := a.transcoder()
			if err != nil {
				return err
			}
			data, err := parseHex(args[0])
			if err != nil {
				return err
			}
			call, err := tc.DecodeCall(callableKind(constructor), data)
			if err != nil {
				return err
			}
			if a.cfg.Pretty {
				a.out.value(call.Value())
			} else {
				a.out.line("%s", call)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&constructor, "constructor", "c", false, "decode a constructor call instead of a message")
	return cmd
}

func newEncodeValueCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "encode-value <type-id> <literal>",
		Short: "Encode a literal as the given registry type",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tc, err := a.transcoder()
			if err != nil {
				return err
			}
			id, err := parseTypeID(args[0])
			if err != nil {
				return err
			}
			data, err := tc.EncodeValue(args[1], id)
			if err != nil {
				a.failedText = args[1]
				return err
			}
			a.out.line("%s", hexutil.Encode(data))
			return nil
		},
	}
}

func newDecodeValueCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "decode-value <type-id> <hex>",
		Short: "Decode bytes as the given registry type",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tc, err := a.transcoder()
			if err != nil {
				return err
			}
			id, err := parseTypeID(args[0])
			if err != nil {
				return err
			}
			data, err := parseHex(args[1])
			if err != nil {
				return err
			}
			v, err := tc.DecodeValue(data, id)
			if err != nil {
				return err
			}
			a.out.value(v)
			return nil
		},
	}
}

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "List the contract's constructors, messages and events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.loadContract()
			if err != nil {
				return err
			}
			reg := c.Registry()
			info := reg.Info()

			a.out.heading(strings.TrimSpace(info.ContractName + " " + info.ContractVersion))
			if info.Language != "" || info.Compiler != "" {
				a.out.line("  built with %s", strings.Join(nonEmpty(info.Language, info.Compiler), ", "))
			}
			if info.HasCodeHash {
				a.out.line("  code hash %s", info.CodeHash.Hex())
			}

			for _, kind := range []registry.CallableKind{registry.Constructor, registry.Message, registry.Event} {
				items := reg.Callables(kind)
				if len(items) == 0 {
					continue
				}
				a.out.heading(sectionTitle(kind))
				for _, item := range items {
					a.out.entry(describe(reg, item), item.SelectorHex())
				}
			}
			return nil
		},
	}
}

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the contract code against the hash in its metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.loadContract()
			if err != nil {
				return err
			}
			if err := c.Verify(); err != nil {
				return err
			}
			hash, _ := c.CodeHash()
			a.out.line("code hash %s matches metadata", hash.Hex())
			return nil
		},
	}
}

func newCompatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "compat <other-metadata>",
		Short: "Check that two contracts share the same environment types",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.loadContract()
			if err != nil {
				return err
			}
			other, err := registry.LoadFile(args[0])
			if err != nil {
				return err
			}
			if err := c.Registry().CompareEnvironment(other); err != nil {
				return err
			}
			a.out.line("environments match")
			return nil
		},
	}
}

func sectionTitle(kind registry.CallableKind) string {
	switch kind {
	case registry.Constructor:
		return "Constructors"
	case registry.Event:
		return "Events"
	default:
		return "Messages"
	}
}

// describe renders an item's signature with its return type and flags.
func describe(reg *registry.Registry, item *registry.CallableItem) string {
	var b strings.Builder
	b.WriteString(item.Signature())
	if item.ReturnType != nil {
		b.WriteString(" -> ")
		b.WriteString(typeLabel(reg, *item.ReturnType))
	}
	if item.Kind == registry.Message {
		if item.Mutates {
			b.WriteString(" [mut]")
		}
		if item.Payable {
			b.WriteString(" [payable]")
		}
	}
	return b.String()
}

func typeLabel(reg *registry.Registry, id registry.TypeID) string {
	t, err := reg.Resolve(id)
	switch {
	case err != nil:
		return "#" + strconv.FormatUint(uint64(id), 10)
	case len(t.Path) > 0:
		return t.PathString()
	case t.Def.Kind == registry.KindPrimitive:
		return t.Def.Primitive.String()
	default:
		return t.Def.Kind.String() + "#" + strconv.FormatUint(uint64(id), 10)
	}
}

func nonEmpty(ss ...string) []string {
	out := ss[:0]
	for _, s := range ss {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
