package main

import (
	"github.com/Tankmaster48/ndnd-catchunks/chunks/catchunks/cmd"
)

func main() {
	cmd.CmdNdndGet.Execute()
}
