package main

import "github.com/vietddude/rpcfail/internal/cli"

func main() {
	cli.Execute()
}
