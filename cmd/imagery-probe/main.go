// apps/go-server/cmd/imagery-probe/main.go
//
// imagery-probe is a small operator tool for checking Mapillary access outside
// the game: resolve a coordinate to an image id, look up a thumbnail URL, or
// download a thumbnail. It uses the same client and resolver as the server.

package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const releaseVersion = "0.1.0"

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	cfg := &probeConfig{}
	cobra.CheckErr(newCmd(cfg).Execute())
}
