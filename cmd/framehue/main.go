// framehue - per-frame palette and contrast colour extraction for videos.
//
// framehue decodes the frames of every video in a directory, extracts a
// dominant palette from each and records the reference colour that
// contrasts with it most.
package main

import (
	"github.com/jmylchreest/framehue/internal/cli"
)

func main() {
	cli.Execute()
}
