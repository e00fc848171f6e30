// Package cmd implements the rv32core command line: running hex or ELF
// images on the core, the built-in self-test and the benchmark suite.
package cmd

import "github.com/urfave/cli/v2"

// NewApp creates the rv32core command line application.
func NewApp() *cli.App {
	app := cli.NewApp()
	app.Name = "rv32core"
	app.Usage = "Cycle-accurate RV32I core simulator"
	app.Description = "Runs RV32I programs on a single-issue core model with a one-cycle writeback stage, memory-mapped LEDs and UART, and an optional data cache."
	app.Commands = []*cli.Command{
		RunCommand,
		DemoCommand,
		BenchCommand,
	}
	return app
}
