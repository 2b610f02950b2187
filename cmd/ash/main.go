// Command ash is a POSIX-style shell.
package main

import (
	"os"

	"github.com/rcarmo/go-ash/pkg/applets/ash"
	"github.com/rcarmo/go-ash/pkg/core"
)

func main() {
	stdio := core.DefaultStdio()
	os.Exit(ash.Run(stdio, os.Args[1:]))
}
