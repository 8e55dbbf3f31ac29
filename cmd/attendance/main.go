package main

import (
	"os"
	"runtime"

	"github.com/chrissnell/attendance/internal/cli"
)

const version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

func main() {
	os.Exit(cli.Execute(version))
}
