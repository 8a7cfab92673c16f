package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for REPL output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL drives. App implements it;
// tests provide a stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Register(ctx context.Context) error
	Verify(ctx context.Context, token string) error
	Resend(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Status(ctx context.Context) error
}

// runREPL reads commands from reader until EOF, "exit"/"quit" or ctx is
// done.
//
//	help            show available commands
//	login           sign in (falls back to the cached session offline)
//	logout          sign out and forget cached credentials
//	register        create an account and request a verification mail
//	verify <token>  confirm the email address
//	resend          send the verification mail again
//	whoami          show the current session
//	status          show connectivity and session
//	exit | quit     leave the program
//
// Command errors are reported by the handlers themselves; the loop keeps
// going.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("ak %s> ", statusFn()))

		line, err := readLine(reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: whoami, status, resend, logout, exit")
			} else {
				printlnFn("Available commands: login, register, verify <token>, resend, status, exit")
			}
		case "login":
			_ = a.Login(ctx)
		case "logout":
			_ = a.Logout(ctx)
		case "register":
			_ = a.Register(ctx)
		case "verify":
			if len(args) != 1 {
				printlnFn("Usage: verify <token>")
				continue
			}
			_ = a.Verify(ctx, args[0])
		case "resend":
			_ = a.Resend(ctx)
		case "whoami":
			_ = a.WhoAmI(ctx)
		case "status":
			_ = a.Status(ctx)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
