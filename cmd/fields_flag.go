package cmd

import (
	"github.com/spf13/pflag"

	"github.com/oakwood-commons/kvpick/pkg/selector"
)

// fieldsFlag parses --fields into a FieldSelector as the flag is set, so a
// bad selector fails during flag parsing.
type fieldsFlag struct {
	fs  selector.FieldSelector
	set bool
}

var _ pflag.Value = (*fieldsFlag)(nil)

func (f *fieldsFlag) String() string {
	if !f.set {
		return ""
	}
	return f.fs.String()
}

// Set accepts "filter=..,show=..,get=.." or a bare field name. The empty
// string resets the flag.
func (f *fieldsFlag) Set(s string) error {
	if s == "" {
		*f = fieldsFlag{}
		return nil
	}
	fs, err := selector.ParseFieldSelector(s)
	if err != nil {
		return err
	}
	f.fs = fs
	f.set = true
	return nil
}

func (f *fieldsFlag) Type() string { return "fields" }
