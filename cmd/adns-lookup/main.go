package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/haukened/adns/internal/dns/common/log"
	"github.com/haukened/adns/internal/dns/domain"
	"github.com/haukened/adns/internal/dns/gateways/client"
	"github.com/haukened/adns/internal/dns/gateways/wire"
)

const (
	appName     = "adns-lookup"
	defaultPort = 9514

	// statusUsage is returned for invalid command lines.
	statusUsage = 2
)

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit status: the
// result code of the reply, 1 when no reply was obtained, or 2 for usage errors.
func run(args []string, stdout, stderr io.Writer) int {
	status := 0
	app := newApp(stdout, stderr, &status)
	if err := app.Run(args); err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", appName, err)
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode()
		}
		return statusUsage
	}
	return status
}

func newApp(stdout, stderr io.Writer, status *int) *cli.App {
	return &cli.App{
		Name:                   appName,
		Usage:                  "Make a lookup request to an adns server",
		ArgsUsage:              "HOST QUERY",
		HideHelpCommand:        true,
		UseShortOptionHandling: true,
		Writer:                 stdout,
		ErrWriter:              stderr,
		// Exit codes are returned from run rather than by calling os.Exit here.
		ExitErrHandler: func(*cli.Context, error) {},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "The adns server's port",
				Value:   defaultPort,
			},
			&cli.BoolFlag{
				Name:    "tcp",
				Aliases: []string{"t"},
				Usage:   "Use TCP instead of UDP",
			},
			&cli.BoolFlag{
				Name:    "reverse",
				Aliases: []string{"r"},
				Usage:   "QUERY is an IP address; look up the associated domain name",
			},
			&cli.BoolFlag{
				Name:    "txt",
				Aliases: []string{"x"},
				Usage:   `Make a TXT query. The only key the server answers is "version"`,
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Log requests and responses",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return cli.Exit("expected exactly two arguments: HOST QUERY", statusUsage)
			}
			if c.Bool("reverse") && c.Bool("txt") {
				return cli.Exit("cannot specify both --reverse and --txt", statusUsage)
			}
			port := c.Int("port")
			if port < 1 || port > 65535 {
				return cli.Exit(fmt.Sprintf("invalid port %d", port), statusUsage)
			}

			level := "warn"
			if c.Bool("verbose") {
				level = "debug"
			}
			logger, err := log.New("dev", level)
			if err != nil {
				return cli.Exit(err.Error(), client.StatusFailure)
			}

			network := client.NetworkUDP
			if c.Bool("tcp") {
				network = client.NetworkTCP
			}

			lookup, err := client.New(client.Options{
				Network: network,
				Address: net.JoinHostPort(c.Args().Get(0), strconv.Itoa(port)),
				Codec:   wire.NewCodec(logger),
				Logger:  logger,
			})
			if err != nil {
				return cli.Exit(err.Error(), client.StatusFailure)
			}

			code, output := lookup.Request(context.Background(), queryType(c), c.Args().Get(1))
			if output != "" {
				fmt.Fprintln(c.App.Writer, output)
			}
			*status = code
			return nil
		},
	}
}

func queryType(c *cli.Context) domain.QueryType {
	switch {
	case c.Bool("reverse"):
		return domain.QueryTypeReverse
	case c.Bool("txt"):
		return domain.QueryTypeText
	default:
		return domain.QueryTypeAddress
	}
}
