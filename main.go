// The main package for the leadminer executable.
package main

import (
	"github.com/ayzen-labs/leadminer/cmd"
)

func main() {
	cmd.Execute()
}
