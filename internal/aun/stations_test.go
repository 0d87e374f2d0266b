package aun

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/acornnet/econetd/internal/econet"
)

func TestParseStations(t *testing.T) {
	input := `# b-em econet.cfg
0 254 127.0.0.1 32768

0 2  localhost 32770
`
	stations, err := ParseStations(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseStations: %v", err)
	}
	if len(stations) != 2 {
		t.Fatalf("got %d stations, want 2", len(stations))
	}
	if stations[0].Addr != (econet.Address{Net: 0, Station: 254}) || stations[0].Endpoint() != "127.0.0.1:32768" {
		t.Errorf("station 0 = %+v", stations[0])
	}
	if stations[1].Host != "localhost" || stations[1].Port != 32770 {
		t.Errorf("station 1 = %+v", stations[1])
	}
}

func TestParseStationErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"too few fields", "0 2 localhost", "fields"},
		{"bad net", "x 2 localhost 1", "invalid net"},
		{"net overflow", "256 2 localhost 1", "invalid net"},
		{"broadcast", "0 0 localhost 1", "broadcast"},
		{"bad port", "0 2 localhost 0", "invalid port"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseStation(tc.line)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error = %v, want containing %q", err, tc.want)
			}
		})
	}
}

func TestParseStationsDuplicate(t *testing.T) {
	_, err := ParseStations(strings.NewReader("0 2 a 1\n0 2 b 2\n"))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error = %v", err)
	}
}

func TestLoadStations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "econet.cfg")
	if err := os.WriteFile(path, []byte("1 9 127.0.0.1 40000\n"), 0644); err != nil {
		t.Fatal(err)
	}
	stations, err := LoadStations(path)
	if err != nil {
		t.Fatalf("LoadStations: %v", err)
	}
	if len(stations) != 1 || stations[0].Addr.String() != "1.9" {
		t.Errorf("stations = %+v", stations)
	}
	if _, err := LoadStations(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}
