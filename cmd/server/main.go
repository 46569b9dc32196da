// Command server runs the gigbook inbound pipeline: the SMTP receiver, the
// HTTP delivery and review API, and the background sweeps.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
