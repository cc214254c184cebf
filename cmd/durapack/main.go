package main

import (
	"github.com/ssargent/durapack/cmd/durapack/cmd"
)

func main() {
	cmd.Execute()
}
