package main

import "github.com/cameronsjo/stevedore/internal/cmd"

func main() {
	cmd.Execute()
}
