// apps/go-server/assets/embed.go
//
// Embedded default data shipped with the binary.
//   - capitals.csv: world capitals ranked by economic size (largest first).
//     Columns: capital,country,latitude,longitude.

package assets

import (
	"embed"
	"io"
)

//go:embed capitals.csv
var FS embed.FS

// Capitals opens the embedded capitals CSV.
func Capitals() (io.ReadCloser, error) {
	return FS.Open("capitals.csv")
}
