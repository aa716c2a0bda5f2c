package main

import (
	"os"

	"github.com/pkg/errors"
)

func main() {
	rootCmd := newRoot().Command()
	if cmd, err := rootCmd.ExecuteC(); err != nil {
		var uerr usageError
		if errors.As(err, &uerr) {
			cmd.Println("")
			cmd.Println(cmd.UsageString())
		}
		os.Exit(1)
	}
}
