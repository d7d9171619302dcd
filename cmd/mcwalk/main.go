// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Mcwalk is a tool for Monte Carlo simulation of photon transport
// through layered scattering media.
package main

import (
	"github.com/js-arias/command"

	"github.com/js-arias/mcwalk/cmd/mcwalk/initcmd"
	"github.com/js-arias/mcwalk/cmd/mcwalk/runcmd"
)

var app = &command.Command{
	Usage: "mcwalk <command> [<argument>...]",
	Short: "a tool for Monte Carlo simulation of photon transport",
}

func init() {
	app.Add(initcmd.Command)
	app.Add(runcmd.Command)
}

func main() {
	app.Main()
}
