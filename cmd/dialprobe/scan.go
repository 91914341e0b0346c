package main

import (
	"context"
	"fmt"

	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v3"

	netdial "github.com/netdial/go-netdial"
)

const categoryScan = "scan"

// ConcurrencyFlag is the name of the flag bounding in-flight dials.
const ConcurrencyFlag = "concurrency"

func getScanCommand() *cli.Command {
	return &cli.Command{
		Name:      "scan",
		Usage:     "Probe a range of TCP ports on a host",
		ArgsUsage: "host first-port last-port",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args()
			if args.Len() != 3 {
				return fmt.Errorf("must provide host, first port and last port, got %d arguments", args.Len())
			}
			host := args.Get(0)
			first, err := parsePort(args.Get(1))
			if err != nil {
				return err
			}
			last, err := parsePort(args.Get(2))
			if err != nil {
				return err
			}
			if last < first {
				return fmt.Errorf("port range %d-%d is backwards", first, last)
			}

			if cmd.Bool(VerboseFlag) {
				logging.SetAllLoggers(logging.LevelDebug)
			}

			d, err := netdial.NewDialer(
				netdial.WithTimeout(cmd.Duration(TimeoutFlag)),
				netdial.WithDialConcurrency(int(cmd.Int(ConcurrencyFlag))),
			)
			if err != nil {
				return err
			}
			defer d.Close()

			// Issue every request up front. The dialer's concurrency limit
			// decides how many run at once.
			reqs := make([]*netdial.Request, 0, int(last)-int(first)+1)
			for port := int(first); port <= int(last); port++ {
				reqs = append(reqs, d.DialAsync(ctx, host, uint16(port)))
			}

			open := 0
			for _, req := range reqs {
				<-req.Await()
				conn, err := req.Result()
				if err != nil {
					continue
				}
				open++
				infoMsg("%s:%d open\n", host, req.Port())
				conn.Close()
			}

			infoMsg("%d of %d ports open\n", open, len(reqs))
			return ctx.Err()
		},
		Flags: getScanFlags(),
	}
}

func getScanFlags() []cli.Flag {
	flags := []cli.Flag{
		&cli.IntFlag{
			Name:     ConcurrencyFlag,
			Aliases:  []string{"c"},
			Usage:    "Number of ports probed at once",
			Category: categoryScan,
			Value:    64,
			Required: false,
		},
	}

	flags = append(flags, getCommonFlags()...)

	return flags
}
