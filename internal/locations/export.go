package locations

import (
	"encoding/csv"
	"io"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
)

// WriteStatsCSV writes one CSV line per location after a header row.
func WriteStatsCSV(w io.Writer, stats []LocationStats) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)

	if len(stats) == 0 {
		if err := enc.EncodeHeader(LocationStats{}); err != nil {
			return eris.Wrap(err, "locations: encode stats header")
		}
	}
	for _, s := range stats {
		if err := enc.Encode(s); err != nil {
			return eris.Wrapf(err, "locations: encode stats for %s", s.Name)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "locations: flush stats csv")
	}
	return nil
}
