package plate

import "testing"

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"spaced", "MH 20 EE 7602", "MH 20 EE 7602"},
		{"unspaced", "KA03MN7654", "KA03MN7654"},
		{"trailing text", "KA03MN7654 PARKING LOT B", "KA03MN7654"},
		{"split across lines", "MH 20\nEE 7602", "MH 20 EE 7602"},
		{"crlf line break", "MH 20\r\nEE 7602", "MH 20 EE 7602"},
		{"embedded in sentence", "VEHICLE DL 08 AF 5031 ENTERING", "DL 08 AF 5031"},
		{"single digit district", "GA 1 AB 1234", "GA 1 AB 1234"},
		{"no series letters", "KA 01 1234", "KA 01 1234"},
		{"first match wins", "MH 12 AB 1234 and KA 01 CD 5678", "MH 12 AB 1234"},
		{"no plate", "OPEN 24 HOURS", NotFound},
		{"empty", "", NotFound},
		{"lowercase not matched", "mh 20 ee 7602", NotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Extract(tt.in); got != tt.want {
				t.Errorf("Extract(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
