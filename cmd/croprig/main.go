// Package main starts the croprig server.
package main

import "flag"

// main is the entrypoint for the croprig server.
func main() {
	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	termMode := flag.Bool("term", false, "Run the terminal crop host instead of the HTTP server")
	flag.Parse()

	if err := run(*debug, *termMode); err != nil {
		logFatal(err)
	}
}
