package main

import (
	"github.com/sidkik/reverso/cmd"
	"github.com/sidkik/reverso/cmd/util"
)

func main() {
	defer util.HandlePanic()
	cmd.Execute()
}
