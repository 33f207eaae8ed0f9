package main

import "os"

// main hands off to cobra. Each subcommand owns its own wiring; business
// logic lives in internal packages.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
