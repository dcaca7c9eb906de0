package main

import "github.com/vietddude/schedrecovery/internal/cli"

func main() {
	cli.Execute()
}
