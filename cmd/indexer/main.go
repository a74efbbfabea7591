package main

import (
	"github.com/afterlife-xyz/afterlife/indexer/cmd"
)

func main() {
	cmd.Execute()
}
