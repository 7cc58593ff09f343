package main

import "wallpaper-catalog/cmd/catalog/commands"

func main() {
	commands.Execute()
}
