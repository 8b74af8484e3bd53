// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/warbler/warble/cmd/warble"

func main() {
	cmd.Execute()
}
