package stats

import "testing"

func TestFormatSize(t *testing.T) {
	cases := []struct {
		bytes int64
		want  string
	}{
		{0, "0 Bytes"},
		{1, "1 Bytes"},
		{512, "512 Bytes"},
		{1023, "1023 Bytes"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{2048, "2 KB"},
		{1048576, "1 MB"},
		{1572864, "1.5 MB"},
		{1073741824, "1 GB"},
		{1099511627776, "1024 GB"}, // clamped to the largest unit
	}
	for _, c := range cases {
		if got := FormatSize(c.bytes); got != c.want {
			t.Errorf("FormatSize(%d) = %q, want %q", c.bytes, got, c.want)
		}
	}
}

func TestFormatSizeRounding(t *testing.T) {
	// 1100/1024 = 1.07421875 -> rounds to 1.07
	if got := FormatSize(1100); got != "1.07 KB" {
		t.Errorf("FormatSize(1100) = %q, want %q", got, "1.07 KB")
	}
}
