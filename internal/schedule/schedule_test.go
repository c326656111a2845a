package schedule

import (
	"testing"
	"time"

	"github.com/muurk/frisquet/internal/protocol"
)

func TestEncodeSetpoint(t *testing.T) {
	tests := []struct {
		in      float64
		want    byte
		wantErr bool
	}{
		{in: 20.0, want: 150},
		{in: 5.0, want: 0},
		{in: 30.5, want: 255},
		{in: 19.5, want: 145},
		{in: 30.6, wantErr: true},
		{in: 4.5, wantErr: true},
		{in: 20.3, wantErr: true},
	}
	for _, tt := range tests {
		got, err := EncodeSetpoint(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("EncodeSetpoint(%v) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if tt.wantErr {
			if !protocol.IsType(err, protocol.ErrTypeConfig) {
				t.Errorf("EncodeSetpoint(%v) error = %v, want config error", tt.in, err)
			}
			continue
		}
		if got != tt.want {
			t.Errorf("EncodeSetpoint(%v) = %d, want %d", tt.in, got, tt.want)
		}
		if back := DecodeSetpoint(got); back != tt.in {
			t.Errorf("DecodeSetpoint(%d) = %v, want %v", got, back, tt.in)
		}
	}
}

func TestTimeIndex(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "12h30", want: 25},
		{in: "00h00", want: 0},
		{in: "23h30", want: 47},
		{in: "12h15", wantErr: true},
		{in: "24h00", wantErr: true},
		{in: "1h00", wantErr: true},
		{in: "12:30", wantErr: true},
	}
	for _, tt := range tests {
		got, err := TimeIndex(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("TimeIndex(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("TimeIndex(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseTimeframe(t *testing.T) {
	tests := []struct {
		in        string
		wantStart int
		wantEnd   int
		wantErr   bool
	}{
		{in: "12h00-14h30", wantStart: 24, wantEnd: 29},
		{in: "22h00-00h00", wantStart: 44, wantEnd: 48},
		{in: "00h00-00h00", wantStart: 0, wantEnd: 48},
		{in: "14h00-12h00", wantErr: true},
		{in: "12h00", wantErr: true},
		{in: "12h00-13h45", wantErr: true},
	}
	for _, tt := range tests {
		start, end, err := ParseTimeframe(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTimeframe(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if start != tt.wantStart || end != tt.wantEnd {
			t.Errorf("ParseTimeframe(%q) = [%d,%d), want [%d,%d)", tt.in, start, end, tt.wantStart, tt.wantEnd)
		}
	}
}

func setSlots(d Day) []int {
	var out []int
	for n := 0; n < SlotsPerDay; n++ {
		if d.IsComfort(n) {
			out = append(out, n)
		}
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBuildDay(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
		want    []int
		wantErr bool
	}{
		{
			name:    "midday comfort",
			entries: []Entry{{Timeframe: "12h00-14h30", Mode: "comfort"}},
			want:    []int{24, 25, 26, 27, 28},
		},
		{
			name:    "evening until midnight",
			entries: []Entry{{Timeframe: "22h00-00h00", Mode: "comfort"}},
			want:    []int{44, 45, 46, 47},
		},
		{
			name: "reduced entries set nothing",
			entries: []Entry{
				{Timeframe: "06h00-07h00", Mode: "comfort"},
				{Timeframe: "07h00-18h00", Mode: "reduced"},
			},
			want: []int{12, 13},
		},
		{
			name:    "frost is not a schedule mode",
			entries: []Entry{{Timeframe: "06h00-07h00", Mode: "frost"}},
			wantErr: true,
		},
		{
			name:    "bad timeframe",
			entries: []Entry{{Timeframe: "6h-7h", Mode: "comfort"}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := BuildDay(tt.entries)
			if (err != nil) != tt.wantErr {
				t.Fatalf("BuildDay() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got := setSlots(d); !equalInts(got, tt.want) {
				t.Errorf("comfort slots = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDayBitLayout(t *testing.T) {
	var d Day
	d.SetComfort(24, 29)
	want := Day{0x00, 0x00, 0x00, 0x1f, 0x00, 0x00}
	if d != want {
		t.Errorf("day = %s, want %s", d, want)
	}
}

func TestWeekIsComfort(t *testing.T) {
	var w Week
	monday, _ := BuildDay([]Entry{{Timeframe: "06h30-08h00", Mode: "comfort"}})
	sunday, _ := BuildDay([]Entry{{Timeframe: "09h00-23h00", Mode: "comfort"}})
	w.Set(time.Monday, monday)
	w.Set(time.Sunday, sunday)

	tests := []struct {
		name    string
		weekday int
		hour    int
		minute  int
		want    bool
		wantErr bool
	}{
		{name: "monday 06:45", weekday: 1, hour: 6, minute: 45, want: true},
		{name: "monday 06:29", weekday: 1, hour: 6, minute: 29, want: false},
		{name: "monday 08:00", weekday: 1, hour: 8, minute: 0, want: false},
		{name: "sunday is weekday 7", weekday: 7, hour: 12, minute: 0, want: true},
		{name: "tuesday empty", weekday: 2, hour: 7, minute: 0, want: false},
		{name: "weekday 0 invalid", weekday: 0, wantErr: true},
		{name: "weekday 8 invalid", weekday: 8, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := w.IsComfort(tt.weekday, tt.hour, tt.minute)
			if (err != nil) != tt.wantErr {
				t.Fatalf("IsComfort() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("IsComfort() = %v, want %v", got, tt.want)
			}
		})
	}
}
