package stats

import (
	"math"
	"strconv"
)

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatSize renders a byte count using the largest fitting unit, with the
// scaled value rounded to two decimals and trailing zeros dropped
// (1024 -> "1 KB", 1536 -> "1.5 KB").
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	idx := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if idx >= len(sizeUnits) {
		idx = len(sizeUnits) - 1
	}
	v := float64(bytes) / math.Pow(1024, float64(idx))
	v = math.Round(v*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[idx]
}
