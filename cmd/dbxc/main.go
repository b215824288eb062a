package main

import (
	"github.com/NVIDIA/dbx-container/pkg/cli"
)

func main() {
	cli.Execute()
}
