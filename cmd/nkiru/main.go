package main

import "github.com/vietddude/nkiru/internal/cli"

func main() {
	cli.Execute()
}
