package main

import "github.com/gitopsworks/chartbump/internal/cmd"

func main() {
	cmd.Execute()
}
