// Command wardrobe manages mod collections and inspects how they resolve.
package main

import "github.com/mesh-intelligence/wardrobe/internal/cli"

func main() {
	cli.Execute()
}
