// Command sitehubctl runs database and maintenance tasks for SiteHub.
package main

import (
	"os"

	"sitehub/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
