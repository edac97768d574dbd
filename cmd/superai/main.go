package main

import (
	"github.com/mysuperai/superai/pkg/cli"
	"github.com/mysuperai/superai/pkg/util/console"
)

func main() {
	cmd, err := cli.NewRootCommand()
	if err != nil {
		console.Fatalf("%s", err)
	}

	if err = cmd.Execute(); err != nil {
		console.Fatalf("%s", err)
	}
}
