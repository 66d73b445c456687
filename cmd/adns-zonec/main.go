// Command adns-zonec compiles a zone file into the bbolt format served by adnsd.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/haukened/adns/internal/dns/common/log"
	"github.com/haukened/adns/internal/dns/repos/zone"
)

const appName = "adns-zonec"

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	app := &cli.App{
		Name:            appName,
		Usage:           "Compile a text, YAML, JSON or TOML zone into a bbolt database",
		ArgsUsage:       "SRC DST",
		HideHelpCommand: true,
		Writer:          stdout,
		ErrWriter:       stderr,
		ExitErrHandler:  func(*cli.Context, error) {},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Log every compiled entry",
			},
		},
		Action: compile,
	}

	if err := app.Run(args); err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", appName, err)
		return 1
	}
	return 0
}

func compile(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("expected exactly two arguments: SRC DST")
	}
	src, dst := c.Args().Get(0), c.Args().Get(1)
	if zone.FormatFromPath(src) == zone.FormatBolt {
		return fmt.Errorf("source %s is already a bbolt zone", src)
	}
	if zone.FormatFromPath(dst) != zone.FormatBolt {
		return fmt.Errorf("destination %s must end in .db or .bolt", dst)
	}

	level := "warn"
	if c.Bool("verbose") {
		level = "debug"
	}
	logger, err := log.New("dev", level)
	if err != nil {
		return err
	}

	z, err := zone.LoadFile(src, logger)
	if err != nil {
		return err
	}
	z.Dump(logger)

	if err := zone.WriteBolt(dst, z.Entries()); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "wrote %d entries to %s\n", z.Len(), dst)
	return nil
}
