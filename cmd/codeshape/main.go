package main

import (
	"os"

	"codeshape/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
