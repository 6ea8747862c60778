package main

import "github.com/pageza/macrosync/backend/internal/cli"

func main() {
	cli.Execute()
}
