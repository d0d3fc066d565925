package main

import "github.com/vietddude/nodewatch/internal/cli"

func main() {
	cli.Execute()
}
