package main

import (
	"github.com/duhman/volterra-knowledge-engine/internal/adapters/driving/cli"
)

func main() {
	cli.Execute()
}
