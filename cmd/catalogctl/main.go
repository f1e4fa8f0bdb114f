// Command catalogctl runs catalog maintenance jobs against the configured
// stores.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
