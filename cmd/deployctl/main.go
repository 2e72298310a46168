package main

import (
	deploycmd "github.com/opsforge/deployctl/cmd"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	deploycmd.SetVersionInfo(version, commit)
	deploycmd.Execute()
}
