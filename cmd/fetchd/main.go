package main

import (
	"fmt"
	"os"
)

// Exit codes
const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitInvalidArgs  = 2
	ExitValidation   = 3
	ExitNegotiation  = 4
	ExitDaemonDown   = 5
	ExitNotFound     = 6
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return ExitInvalidArgs
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "start":
		return runStart(cmdArgs)
	case "status":
		return runStatus(cmdArgs)
	case "stop":
		return runStop(cmdArgs)
	case "probe":
		return runProbe(cmdArgs)
	case "version":
		return runVersion(cmdArgs)
	case "help", "-h", "--help":
		printUsage()
		return ExitSuccess
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		return ExitInvalidArgs
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: fetchd <command> [options]

Commands:
  start    Negotiate access to a URL and submit it to the aria2 daemon
  status   Query one download by gid
  stop     Remove one download by gid
  probe    Check whether a URL is fetchable without downloading it
  version  Query the daemon version

Run 'fetchd <command> -h' for command-specific help.`)
}
