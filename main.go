// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/flowrun/flowrun/cmd/flowrun"

func main() {
	cmd.Execute()
}
