package main

import "github.com/stockroom/stockroom/cmd/stockroom/cli"

func main() {
	cli.Execute()
}
