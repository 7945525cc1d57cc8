package main

import "github.com/artemshloyda/wallpaperctl/internal/cli"

func main() {
	cli.Execute()
}
