package main

import (
	"os"

	"github.com/MalyanDon/data-pipeline-sub002/cmd/holdings/cmd"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, date)
	os.Exit(cmd.Execute())
}
