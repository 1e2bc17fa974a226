package cmd

import (
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// splitChain cuts args into one argument list per chained subcommand:
//
//	-S src list-tables -C version  =>  [-S src list-tables -C] [-S src version]
//
// Tokens before the first subcommand are global flags and are repeated in
// every segment. Flag values are never taken for subcommand names. When the
// first positional token is not a chainable command (help, completion, a
// typo) args is returned as a single segment for cobra to handle.
func splitChain(root *cobra.Command, args []string) [][]string {
	var (
		global   []string
		segments [][]string
		current  *cobra.Command
	)
	appendArg := func(arg string) {
		if current == nil {
			global = append(global, arg)
			return
		}
		last := len(segments) - 1
		segments[last] = append(segments[last], arg)
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			for _, rest := range args[i:] {
				appendArg(rest)
			}
			i = len(args)
		case strings.HasPrefix(arg, "-") && len(arg) > 1:
			appendArg(arg)
			if takesValue(root, current, arg) && i+1 < len(args) {
				i++
				appendArg(args[i])
			}
		default:
			sub := chainable(root, arg)
			if sub == nil {
				if current == nil {
					return [][]string{args}
				}
				appendArg(arg)
				continue
			}
			current = sub
			segments = append(segments, []string{arg})
		}
	}

	if len(segments) == 0 {
		return [][]string{args}
	}
	out := make([][]string, len(segments))
	for i, seg := range segments {
		out[i] = append(append([]string{}, global...), seg...)
	}
	return out
}

// chainable returns the direct subcommand named or aliased by name. Cobra's
// own help and completion commands take command names as arguments and are
// never chained.
func chainable(root *cobra.Command, name string) *cobra.Command {
	for _, c := range root.Commands() {
		if c.Name() == "help" || c.Name() == "completion" {
			continue
		}
		if c.Name() == name || c.HasAlias(name) {
			return c
		}
	}
	return nil
}

// takesValue reports whether the flag token arg consumes the following token.
func takesValue(root, current *cobra.Command, arg string) bool {
	if strings.HasPrefix(arg, "--") {
		name := strings.TrimPrefix(arg, "--")
		if strings.Contains(name, "=") {
			return false
		}
		return needsValue(lookupFlag(root, current, name, ""))
	}

	// shorthand cluster such as -vt or -tvalue
	shorts := strings.TrimPrefix(arg, "-")
	for i, r := range shorts {
		if r >= utf8.RuneSelf {
			return false
		}
		f := lookupFlag(root, current, "", string(r))
		if !needsValue(f) {
			continue
		}
		return i == len(shorts)-1
	}
	return false
}

func lookupFlag(root, current *cobra.Command, name, shorthand string) *pflag.Flag {
	sets := []*pflag.FlagSet{root.PersistentFlags()}
	if current != nil {
		sets = append(sets, current.Flags())
	}
	for _, fs := range sets {
		if name != "" {
			if f := fs.Lookup(name); f != nil {
				return f
			}
			continue
		}
		if f := fs.ShorthandLookup(shorthand); f != nil {
			return f
		}
	}
	return nil
}

func needsValue(f *pflag.Flag) bool {
	return f != nil && f.NoOptDefVal == ""
}

// resetFlags restores the local flags of cmd so the next segment running the
// same command starts from defaults.
func resetFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
}

// executeChain runs every segment of args in order and stops at the first error.
func executeChain(root *cobra.Command, args []string) error {
	for _, seg := range splitChain(root, args) {
		root.SetArgs(seg)
		cmd, err := root.ExecuteC()
		if cmd != root {
			resetFlags(cmd)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
