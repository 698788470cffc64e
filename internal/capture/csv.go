package capture

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/okravets/sensor-uplink-service/internal/protocol"
)

// motionHeader matches the wire field order.
var motionHeader = []string{"ax", "ay", "az", "gx", "gy", "gz"}

// WriteMotionCSV writes motion samples as one row per sample with a
// header line, in wire field order.
func WriteMotionCSV(w io.Writer, samples []protocol.MotionSample) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(motionHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	row := make([]string, 6)
	for i, s := range samples {
		fields := [6]float32{s.Ax, s.Ay, s.Az, s.Gx, s.Gy, s.Gz}
		for j, v := range fields {
			row[j] = strconv.FormatFloat(float64(v), 'g', -1, 32)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
