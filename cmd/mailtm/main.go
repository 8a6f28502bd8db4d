// Command mailtm is a console client for disposable mailboxes.
package main

import (
	"os"
)

// version is set at build time via ldflags
var version = "dev"

func main() {
	if err := Execute(); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
