// Command dialprobe checks TCP connectivity from the command line. It is
// both a demo of the netdial package and a quick debugging tool for
// unreachable endpoints.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	netdial "github.com/netdial/go-netdial"
)

var red = color.New(color.FgRed).FprintfFunc()
var blue = color.New(color.FgBlue).FprintfFunc()

// errorMsg prints an error message to stderr in red color.
func errorMsg(format string, a ...interface{}) {
	red(os.Stderr, "[!] Error: "+format, a...)
}

// infoMsg prints an informational message to stderr in blue color.
func infoMsg(format string, a ...interface{}) {
	blue(os.Stderr, "[+] "+format, a...)
}

const categoryCommon = "common"

// TimeoutFlag is the name of the flag bounding each dial.
const TimeoutFlag = "timeout"

// VerboseFlag is the name of the flag to enable debug logging.
const VerboseFlag = "verbose"

// Version is stamped at build time via -ldflags.
var Version = "unknown"

// getCommonFlags returns the flags shared by the connect and scan commands.
func getCommonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{
			Name:     TimeoutFlag,
			Aliases:  []string{"t"},
			Usage:    "Give up on a dial after this long, 0 to wait forever",
			Category: categoryCommon,
			Value:    netdial.DialTimeout,
			Required: false,
		},
		&cli.BoolFlag{
			Name:     VerboseFlag,
			Aliases:  []string{"v"},
			Usage:    "Debug logging",
			Category: categoryCommon,
			Value:    false,
			Required: false,
		},
	}
}

// parsePort parses a decimal TCP port number.
func parsePort(s string) (uint16, error) {
	port, err := strconv.Atoi(s)
	if err != nil || port < 1 || port > 65535 {
		return 0, fmt.Errorf("parsing port %s: must be a number between 1 and 65535", s)
	}
	return uint16(port), nil
}

func getVersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Program version",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			fmt.Println(Version)
			return nil
		},
		Flags: []cli.Flag{},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := &cli.Command{
		Name:  "dialprobe",
		Usage: "probe TCP endpoints with cancellable, timeout-bounded dials",
		Commands: []*cli.Command{
			getConnectCommand(),
			getScanCommand(),
			getVersionCommand(),
		},
	}

	if err := root.Run(ctx, os.Args); err != nil {
		errorMsg("%s\n", err)
		os.Exit(1)
	}
}
