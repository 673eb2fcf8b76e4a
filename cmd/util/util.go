// Package util holds argument and flag helpers shared by the commands.
package util

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"b00m.in/addressiq/bbox"
)

// Validate rejects blank positional arguments.
func Validate(cmd *cobra.Command, args []string) error {
	for i, a := range args {
		if strings.TrimSpace(a) == "" {
			return eris.Errorf("%s: argument %d is empty", cmd.Name(), i+1)
		}
	}
	return nil
}

// MaximumArgs accepts at most n non-blank arguments.
func MaximumArgs(n int) cobra.PositionalArgs {
	return cobra.MatchAll(cobra.MaximumNArgs(n), Validate)
}

// ExactArgs accepts exactly n non-blank arguments.
func ExactArgs(n int) cobra.PositionalArgs {
	return cobra.MatchAll(cobra.ExactArgs(n), Validate)
}

// BoxValue is a pflag value parsed from "xmin,ymin,xmax,ymax".
type BoxValue struct {
	Box *bbox.Box
}

var _ pflag.Value = BoxValue{}

func (v BoxValue) String() string {
	if v.Box == nil {
		return ""
	}
	return v.Box.String()
}

func (v BoxValue) Set(s string) error {
	b, err := bbox.Parse(s)
	if err != nil {
		return err
	}
	*v.Box = b
	return nil
}

func (v BoxValue) Type() string { return "bbox" }

// BoxVar defines a bbox flag that writes into b.
func BoxVar(fs *pflag.FlagSet, b *bbox.Box, name, usage string) {
	fs.Var(BoxValue{Box: b}, name, usage)
}

// ParseFilename returns the last path segment of an object key.
func ParseFilename(key string) string {
	ss := strings.Split(key, "/")
	return ss[len(ss)-1]
}

// ModifyFilename inserts add before the first extension of filename.
func ModifyFilename(filename, add string) string {
	before, after, found := strings.Cut(filename, ".")
	if found {
		return before + "-" + add + "." + after
	}
	return filename + "-" + add
}
