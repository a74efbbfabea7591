package main

import (
	"github.com/afterlife-xyz/afterlife/api/cmd"
)

func main() {
	cmd.Execute()
}
