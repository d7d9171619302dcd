// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package initcmd implements a command to create a new mcwalk project
// file with default run parameters.
package initcmd

import (
	"fmt"

	"github.com/js-arias/command"

	"github.com/js-arias/mcwalk/project"
	"github.com/js-arias/mcwalk/runparam"
)

var Command = &command.Command{
	Usage: `init [--config <file>] [--run <file>] <project-file>`,
	Short: "create a new project file",
	Long: `
Command init creates a new mcwalk project file, with a default run
parameter file alongside it.

The argument of the command is the path of the project file to
create.

The flag --config sets the path of the XML sample/source description
that will be recorded in the project (it is not required to exist yet).

The flag --run sets the path of the run parameter file to create; by
default it is the project name with a ".run.tsv" suffix.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var configPath string
var runPath string

func setFlags(c *command.Command) {
	c.Flags().StringVar(&configPath, "config", "", "")
	c.Flags().StringVar(&runPath, "run", "", "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}
	name := args[0]

	if runPath == "" {
		runPath = name + ".run.tsv"
	}

	rp := runparam.New(runPath)
	if err := rp.Write(); err != nil {
		return fmt.Errorf("while writing run parameters: %v", err)
	}

	p := project.New()
	p.SetName(name)
	p.Add(project.RunParam, runPath)
	if configPath != "" {
		p.Add(project.Config, configPath)
	}
	if err := p.Write(); err != nil {
		return fmt.Errorf("while writing project %q: %v", name, err)
	}

	return nil
}
