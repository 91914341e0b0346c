package main

import (
	"context"
	"fmt"
	"net"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v3"

	netdial "github.com/netdial/go-netdial"
)

const categoryConnect = "connect"

// LocalFlag is the name of the flag binding the local side of the socket.
const LocalFlag = "local"

// SocksFlag is the name of the flag routing the dial through a SOCKS5 proxy.
const SocksFlag = "socks"

// RawFlag is the name of the flag selecting the raw socket connector.
const RawFlag = "raw"

// IPv4Flag is the name of the flag restricting resolution to IPv4.
const IPv4Flag = "4"

// IPv6Flag is the name of the flag restricting resolution to IPv6.
const IPv6Flag = "6"

func getConnectCommand() *cli.Command {
	return &cli.Command{
		Name:      "connect",
		Usage:     "Connect to a remote host once and report the outcome",
		ArgsUsage: "host port",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args()
			if args.Len() != 2 {
				return fmt.Errorf("must provide host and port, got %d arguments", args.Len())
			}
			host := args.Get(0)
			port, err := parsePort(args.Get(1))
			if err != nil {
				return err
			}

			if cmd.Bool(VerboseFlag) {
				logging.SetAllLoggers(logging.LevelDebug)
			}

			var laddr *net.TCPAddr
			if s := cmd.String(LocalFlag); s != "" {
				laddr, err = net.ResolveTCPAddr("tcp", s)
				if err != nil {
					return fmt.Errorf("parsing local address: %s", err)
				}
			}

			opts := []netdial.Option{netdial.WithTimeout(cmd.Duration(TimeoutFlag))}
			switch {
			case cmd.String(SocksFlag) != "":
				if laddr != nil {
					return fmt.Errorf("cannot combine --%s with --%s", LocalFlag, SocksFlag)
				}
				pc, err := netdial.NewProxyConnector(cmd.String(SocksFlag), nil, nil)
				if err != nil {
					return fmt.Errorf("configuring proxy: %s", err)
				}
				opts = append(opts, netdial.WithConnector(pc))
			case cmd.Bool(RawFlag):
				opts = append(opts, netdial.WithConnector(&netdial.RawConnector{LocalAddr: laddr}))
			default:
				if laddr != nil {
					opts = append(opts, netdial.WithLocalAddr(laddr))
				}
			}
			if cmd.Bool(IPv4Flag) {
				opts = append(opts, netdial.WithAddrFilters(netdial.IPv4Only))
			}
			if cmd.Bool(IPv6Flag) {
				opts = append(opts, netdial.WithAddrFilters(netdial.IPv6Only))
			}

			d, err := netdial.NewDialer(opts...)
			if err != nil {
				return err
			}
			defer d.Close()

			start := time.Now()
			conn, err := d.DialContext(ctx, host, port)
			if err != nil {
				return err
			}
			defer conn.Close()

			infoMsg("Connected to %s from %s in %s\n", conn.RemoteAddr(), conn.LocalAddr(), time.Since(start).Round(time.Millisecond))
			return nil
		},
		Flags: getConnectFlags(),
	}
}

func getConnectFlags() []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:     LocalFlag,
			Aliases:  []string{"l"},
			Usage:    "Local address to bind, host:port format",
			Category: categoryConnect,
			Value:    "",
			Required: false,
		},
		&cli.StringFlag{
			Name:     SocksFlag,
			Aliases:  []string{"D"},
			Usage:    "Dial through a SOCKS5 proxy at this host:port",
			Category: categoryConnect,
			Value:    "",
			Required: false,
		},
		&cli.BoolFlag{
			Name:     RawFlag,
			Aliases:  []string{},
			Usage:    "Use the raw socket connector (unix only)",
			Category: categoryConnect,
			Value:    false,
			Required: false,
		},
		&cli.BoolFlag{
			Name:     IPv4Flag,
			Usage:    "Dial IPv4 addresses only",
			Category: categoryConnect,
			Value:    false,
			Required: false,
		},
		&cli.BoolFlag{
			Name:     IPv6Flag,
			Usage:    "Dial IPv6 addresses only",
			Category: categoryConnect,
			Value:    false,
			Required: false,
		},
	}

	flags = append(flags, getCommonFlags()...)

	return flags
}
