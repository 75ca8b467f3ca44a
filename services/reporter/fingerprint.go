package reporter

import (
	"strconv"

	"droqsdb/overseasreporter/internal/extract"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint digests a batch's location and its ordered
// (shop, name, stock, cost) tuples. Item order matters.
func Fingerprint(b extract.Batch) string {
	d := xxhash.New()
	for _, it := range b.Items {
		d.WriteString(it.Shop)
		d.WriteString("\x1f")
		d.WriteString(it.Name)
		d.WriteString("\x1f")
		d.WriteString(strconv.FormatInt(it.Stock, 10))
		d.WriteString("\x1f")
		d.WriteString(strconv.FormatInt(it.Cost, 10))
		d.WriteString("\x1e")
	}
	return string(b.Location) + ":" + strconv.Itoa(len(b.Items)) + ":" + strconv.FormatUint(d.Sum64(), 16)
}
