package main

import "admissionrag/internal/cli"

func main() {
	cli.Execute()
}
