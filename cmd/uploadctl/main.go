package main

import (
	"os"

	"file-uploader/internal/shared/config"
)

func main() {
	if err := newRootCmd(config.Load).Execute(); err != nil {
		os.Exit(1)
	}
}
