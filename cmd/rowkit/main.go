// Command rowkit inspects databases managed by the rowkit ORM.
package main

import "github.com/coderi421/rowkit/internal/cli"

func main() {
	cli.Execute()
}
