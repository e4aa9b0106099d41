package main

import (
	"github.com/robotalks/evdash/pkg/cli/sh"
	"github.com/robotalks/evdash/pkg/env"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupBenchFlags()
}

func main() {
	sh.Main()
}
