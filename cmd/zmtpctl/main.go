// File: cmd/zmtpctl/main.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// zmtpctl is a small operational diagnostic entrypoint: connect to a
// peer, run the handshake, optionally send one message, and print a
// trace of what happened. It is not a usage example of the socket API
// (spec.md's Non-goals exclude those) — it is the same kind of
// operator-facing CLI a deployed service ships alongside its library.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zmtpctl",
		Short: "Diagnostic CLI for the ZMTP core: connect, handshake-trace, send-one",
	}
	cmd.AddCommand(newConnectCommand())
	cmd.AddCommand(newSendCommand())
	return cmd
}
