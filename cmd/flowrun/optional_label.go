// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/spf13/pflag"

// OptionalLabel is the value of a flag that may be given bare (--resume) or
// with a label (--resume=abc). Given reports whether the flag appeared;
// Label is empty for the bare form.
type OptionalLabel struct {
	Given bool
	Label string

	bare string
}

// addOptionalLabelFlag registers v under name. bare is the value pflag
// substitutes when the flag has no "=value" and is shown in help output.
func addOptionalLabelFlag(fs *pflag.FlagSet, v *OptionalLabel, name, bare, usage string) {
	v.bare = bare
	fs.Var(v, name, usage)
	fs.Lookup(name).NoOptDefVal = bare
}

// String implements pflag.Value.
func (o *OptionalLabel) String() string {
	return o.Label
}

// Set implements pflag.Value.
func (o *OptionalLabel) Set(value string) error {
	o.Given = true
	if value == o.bare {
		o.Label = ""
		return nil
	}
	o.Label = value
	return nil
}

// Type implements pflag.Value.
func (o *OptionalLabel) Type() string {
	return "label"
}
