// Command ocispec works with OCI runtime and image documents from the shell.
package main

import (
	"os"

	log "github.com/sirupsen/logrus"
)

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.WarnLevel)

	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
