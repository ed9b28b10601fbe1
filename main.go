package main

import "github.com/AUKUS561/LSABEMA/console"

func main() {
	console.Execute()
}
