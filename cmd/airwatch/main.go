package main

import "github.com/vietddude/airwatch/internal/cli"

func main() {
	cli.Execute()
}
