package main

import (
	"github.com/mcoot/codebattle-go/internal/cli"
)

func main() {
	cli.Execute()
}
