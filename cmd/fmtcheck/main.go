package main

import (
	"os"

	"github.com/harrison/fmtcheck/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
