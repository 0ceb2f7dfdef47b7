// Command indexkeeper tracks collectible variants locally and serves the
// shared record store.
package main

import "github.com/mesh-intelligence/indexkeeper/internal/cli"

func main() {
	cli.Execute()
}
