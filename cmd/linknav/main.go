// Command linknav manages typed links between entities and serves the
// navigation API.
package main

import "github.com/mesh-intelligence/linknav/internal/cli"

func main() {
	cli.Execute()
}
