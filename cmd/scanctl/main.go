// Command scanctl validates and enqueues scan jobs, inspects recorded jobs
// and runs imports and migrations against the scanhub datastore.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
