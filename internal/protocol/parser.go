package protocol

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// Kind identifies a message body variant.
type Kind int

const (
	KindRaw Kind = iota
	KindCommand
	KindAck
	KindAssociationAnnounce
	KindAssociationReply
	KindDate
	KindSensors
	KindArea
	KindBoiler
	KindHoliday
	KindData
	KindSondeInit
	KindSondeInitReply
	KindSondeTemperature
	KindSondeTemperatureReply
)

var kindNames = map[Kind]string{
	KindRaw:                   "raw",
	KindCommand:               "command",
	KindAck:                   "ack",
	KindAssociationAnnounce:   "association-announce",
	KindAssociationReply:      "association-reply",
	KindDate:                  "date",
	KindSensors:               "sensors",
	KindArea:                  "area",
	KindBoiler:                "boiler",
	KindHoliday:               "holiday",
	KindData:                  "data",
	KindSondeInit:             "sonde-init",
	KindSondeInitReply:        "sonde-init-reply",
	KindSondeTemperature:      "sonde-temperature",
	KindSondeTemperatureReply: "sonde-temperature-reply",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// NewBody returns an empty body of the given kind, ready for Decode.
func NewBody(k Kind) (Body, error) {
	switch k {
	case KindRaw:
		return &Raw{}, nil
	case KindCommand:
		return &Command{}, nil
	case KindAck:
		return &Ack{}, nil
	case KindAssociationAnnounce:
		return &AssociationAnnounce{}, nil
	case KindAssociationReply:
		return &AssociationReply{}, nil
	case KindDate:
		return &DateBody{}, nil
	case KindSensors:
		return &SensorsBody{}, nil
	case KindArea:
		return &AreaBody{}, nil
	case KindBoiler:
		return &BoilerBody{}, nil
	case KindHoliday:
		return &HolidayBody{}, nil
	case KindData:
		return &DataBody{}, nil
	case KindSondeInit:
		return &SondeInit{}, nil
	case KindSondeInitReply:
		return &SondeInitReply{}, nil
	case KindSondeTemperature:
		return &SondeTemperature{}, nil
	case KindSondeTemperatureReply:
		return &SondeTemperatureReply{}, nil
	default:
		return nil, fmt.Errorf("unknown body kind %d", int(k))
	}
}

// ParseKind maps a kind name (as printed by Kind.String) back to a Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown body kind %q", s)
}

// Body is a typed message body. Bodies ignore bytes past their own layout.
type Body interface {
	Kind() Kind
	MarshalBinary() ([]byte, error)
	UnmarshalBinary(data []byte) error
	// Validate checks the body's consistency contract (length fields,
	// echoed command bytes).
	Validate() error
}

// Field describes a named byte range of an encoded body, for display.
type Field struct {
	Name  string
	Start int
	End   int
	Value string
}

// Describer is implemented by bodies that can annotate their encoding.
type Describer interface {
	Fields() []Field
}

// Body lengths as reported by the bodies' own length bytes
const (
	DateLength    = 0x08
	SensorsLength = 0x38
	AreaLength    = 0x30
	BoilerLength  = 0x2a
)

var errShort = errors.New("body too short")

// reader decodes fixed big-endian layouts and remembers the first failure.
type reader struct {
	b   []byte
	off int
	err error
}

func (r *reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if len(r.b)-r.off < n {
		r.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", errShort, n, r.off, len(r.b)-r.off)
		return false
	}
	return true
}

func (r *reader) u8() byte {
	if !r.need(1) {
		return 0
	}
	v := r.b[r.off]
	r.off++
	return v
}

func (r *reader) i16() int16 {
	if !r.need(2) {
		return 0
	}
	v := int16(binary.BigEndian.Uint16(r.b[r.off:]))
	r.off += 2
	return v
}

func (r *reader) fill(dst []byte) {
	if !r.need(len(dst)) {
		return
	}
	copy(dst, r.b[r.off:])
	r.off += len(dst)
}

func (r *reader) bytes(n int) []byte {
	if !r.need(n) {
		return nil
	}
	out := make([]byte, n)
	copy(out, r.b[r.off:])
	r.off += n
	return out
}

func appendI16(b []byte, v int16) []byte {
	return binary.BigEndian.AppendUint16(b, uint16(v))
}

func hexField(name string, start, end int, data []byte) Field {
	return Field{Name: name, Start: start, End: end, Value: hex.EncodeToString(data)}
}

// Raw is the opaque fallback body: every byte after the header.
type Raw struct {
	Data []byte
}

func (m *Raw) Kind() Kind                     { return KindRaw }
func (m *Raw) MarshalBinary() ([]byte, error) { return append([]byte(nil), m.Data...), nil }
func (m *Raw) Validate() error                { return nil }
func (m *Raw) String() string                 { return hex.EncodeToString(m.Data) }

func (m *Raw) UnmarshalBinary(data []byte) error {
	m.Data = append([]byte(nil), data...)
	return nil
}

// Command is an opaque request body, typically a register query signature.
type Command struct {
	Data []byte
}

func (m *Command) Kind() Kind                     { return KindCommand }
func (m *Command) MarshalBinary() ([]byte, error) { return append([]byte(nil), m.Data...), nil }
func (m *Command) Validate() error                { return nil }
func (m *Command) String() string                 { return hex.EncodeToString(m.Data) }

func (m *Command) UnmarshalBinary(data []byte) error {
	m.Data = append([]byte(nil), data...)
	return nil
}

// Ack accepts any body; used for replies whose content is not interpreted.
type Ack struct{}

func (m *Ack) Kind() Kind                        { return KindAck }
func (m *Ack) MarshalBinary() ([]byte, error)    { return []byte{}, nil }
func (m *Ack) UnmarshalBinary(data []byte) error { return nil }
func (m *Ack) Validate() error                   { return nil }
func (m *Ack) String() string                    { return "ACK" }

// AssociationAnnounce is broadcast by the boiler while in pairing mode.
type AssociationAnnounce struct {
	Length    byte
	NetworkID [4]byte
}

func (m *AssociationAnnounce) Kind() Kind      { return KindAssociationAnnounce }
func (m *AssociationAnnounce) Validate() error { return nil }

func (m *AssociationAnnounce) MarshalBinary() ([]byte, error) {
	return append([]byte{m.Length}, m.NetworkID[:]...), nil
}

func (m *AssociationAnnounce) UnmarshalBinary(data []byte) error {
	r := reader{b: data}
	m.Length = r.u8()
	r.fill(m.NetworkID[:])
	return r.err
}

func (m *AssociationAnnounce) String() string {
	return fmt.Sprintf("AssociationAnnounce{network_id=%s}", hex.EncodeToString(m.NetworkID[:]))
}

// AssociationReply answers an announce with the entity's protocol version.
type AssociationReply struct {
	Version []byte
}

func (m *AssociationReply) Kind() Kind      { return KindAssociationReply }
func (m *AssociationReply) Validate() error { return nil }

func (m *AssociationReply) MarshalBinary() ([]byte, error) {
	return append([]byte(nil), m.Version...), nil
}

func (m *AssociationReply) UnmarshalBinary(data []byte) error {
	m.Version = append([]byte(nil), data...)
	return nil
}

func (m *AssociationReply) String() string {
	return fmt.Sprintf("AssociationReply{version=%s}", hex.EncodeToString(m.Version))
}

// DateBody is the boiler clock. Date fields are packed BCD.
type DateBody struct {
	Length  byte
	Year    byte
	Month   byte
	Day     byte
	Hour    byte
	Minute  byte
	Second  byte
	Unknown byte
	Weekday byte // 1 = Monday .. 7 = Sunday
}

func (m *DateBody) Kind() Kind { return KindDate }

func (m *DateBody) MarshalBinary() ([]byte, error) {
	return []byte{m.Length, m.Year, m.Month, m.Day, m.Hour, m.Minute, m.Second, m.Unknown, m.Weekday}, nil
}

func (m *DateBody) UnmarshalBinary(data []byte) error {
	r := reader{b: data}
	m.Length = r.u8()
	m.Year = r.u8()
	m.Month = r.u8()
	m.Day = r.u8()
	m.Hour = r.u8()
	m.Minute = r.u8()
	m.Second = r.u8()
	m.Unknown = r.u8()
	m.Weekday = r.u8()
	return r.err
}

func (m *DateBody) Validate() error {
	if m.Length != DateLength {
		return fmt.Errorf("length 0x%02x, want 0x%02x", m.Length, DateLength)
	}
	return nil
}

func (m *DateBody) YearOfCentury() int  { return BCD(m.Year) }
func (m *DateBody) MonthOfYear() int    { return BCD(m.Month) }
func (m *DateBody) DayOfMonth() int     { return BCD(m.Day) }
func (m *DateBody) HourOfDay() int      { return BCD(m.Hour) }
func (m *DateBody) MinuteOfHour() int   { return BCD(m.Minute) }
func (m *DateBody) SecondOfMinute() int { return BCD(m.Second) }
func (m *DateBody) DayOfWeek() int      { return int(m.Weekday) }

// Time converts the boiler clock to a time in loc (years are 2000-based).
func (m *DateBody) Time(loc *time.Location) (time.Time, error) {
	month := m.MonthOfYear()
	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("invalid month %d", month)
	}
	return time.Date(2000+m.YearOfCentury(), time.Month(month), m.DayOfMonth(),
		m.HourOfDay(), m.MinuteOfHour(), m.SecondOfMinute(), 0, loc), nil
}

func (m *DateBody) String() string {
	return fmt.Sprintf("Date{20%02d-%02d-%02d %02d:%02d:%02d weekday=%d}",
		m.YearOfCentury(), m.MonthOfYear(), m.DayOfMonth(),
		m.HourOfDay(), m.MinuteOfHour(), m.SecondOfMinute(), m.Weekday)
}

func (m *DateBody) Fields() []Field {
	return []Field{
		{Name: "Length", Start: 0, End: 1, Value: fmt.Sprintf("%d", m.Length)},
		{Name: "Year", Start: 1, End: 2, Value: fmt.Sprintf("%02x", m.Year)},
		{Name: "Month", Start: 2, End: 3, Value: fmt.Sprintf("%02x", m.Month)},
		{Name: "Day", Start: 3, End: 4, Value: fmt.Sprintf("%02x", m.Day)},
		{Name: "Hour", Start: 4, End: 5, Value: fmt.Sprintf("%02x", m.Hour)},
		{Name: "Minute", Start: 5, End: 6, Value: fmt.Sprintf("%02x", m.Minute)},
		{Name: "Second", Start: 6, End: 7, Value: fmt.Sprintf("%02x", m.Second)},
		{Name: "Unknown", Start: 7, End: 8, Value: fmt.Sprintf("%02x", m.Unknown)},
		{Name: "Weekday", Start: 8, End: 9, Value: fmt.Sprintf("%d", m.Weekday)},
	}
}

// SensorsBody is the boiler temperature snapshot. Temperatures are signed
// tenths of a degree.
type SensorsBody struct {
	Length     byte
	HotWater   int16 // ECS, domestic hot water
	Boiler     int16 // CDC, boiler body
	Departure1 int16
	Departure2 int16
	Departure3 int16
	Unknown1   [26]byte
	Ambient1   int16
	Ambient2   int16
	Ambient3   int16
	Unknown2   [6]byte
	Setpoint1  int16
	Setpoint2  int16
	Setpoint3  int16
	Outside    int16
}

func (m *SensorsBody) Kind() Kind { return KindSensors }

func (m *SensorsBody) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, 57)
	b = append(b, m.Length)
	for _, v := range []int16{m.HotWater, m.Boiler, m.Departure1, m.Departure2, m.Departure3} {
		b = appendI16(b, v)
	}
	b = append(b, m.Unknown1[:]...)
	for _, v := range []int16{m.Ambient1, m.Ambient2, m.Ambient3} {
		b = appendI16(b, v)
	}
	b = append(b, m.Unknown2[:]...)
	for _, v := range []int16{m.Setpoint1, m.Setpoint2, m.Setpoint3, m.Outside} {
		b = appendI16(b, v)
	}
	return b, nil
}

func (m *SensorsBody) UnmarshalBinary(data []byte) error {
	r := reader{b: data}
	m.Length = r.u8()
	m.HotWater = r.i16()
	m.Boiler = r.i16()
	m.Departure1 = r.i16()
	m.Departure2 = r.i16()
	m.Departure3 = r.i16()
	r.fill(m.Unknown1[:])
	m.Ambient1 = r.i16()
	m.Ambient2 = r.i16()
	m.Ambient3 = r.i16()
	r.fill(m.Unknown2[:])
	m.Setpoint1 = r.i16()
	m.Setpoint2 = r.i16()
	m.Setpoint3 = r.i16()
	m.Outside = r.i16()
	return r.err
}

func (m *SensorsBody) Validate() error {
	if m.Length != SensorsLength {
		return fmt.Errorf("length 0x%02x, want 0x%02x", m.Length, SensorsLength)
	}
	return nil
}

// Readings returns the named temperatures in degrees Celsius.
func (m *SensorsBody) Readings() map[string]float64 {
	return map[string]float64{
		"hot_water":   Celsius(m.HotWater),
		"boiler":      Celsius(m.Boiler),
		"departure_1": Celsius(m.Departure1),
		"departure_2": Celsius(m.Departure2),
		"departure_3": Celsius(m.Departure3),
		"ambient_1":   Celsius(m.Ambient1),
		"ambient_2":   Celsius(m.Ambient2),
		"ambient_3":   Celsius(m.Ambient3),
		"setpoint_1":  Celsius(m.Setpoint1),
		"setpoint_2":  Celsius(m.Setpoint2),
		"setpoint_3":  Celsius(m.Setpoint3),
		"outside":     Celsius(m.Outside),
	}
}

func (m *SensorsBody) String() string {
	return fmt.Sprintf("Sensors{hot_water=%.1f boiler=%.1f ambient_1=%.1f setpoint_1=%.1f outside=%.1f}",
		Celsius(m.HotWater), Celsius(m.Boiler), Celsius(m.Ambient1), Celsius(m.Setpoint1), Celsius(m.Outside))
}

func (m *SensorsBody) Fields() []Field {
	temp := func(name string, start int, v int16) Field {
		return Field{Name: name, Start: start, End: start + 2, Value: fmt.Sprintf("%.1f", Celsius(v))}
	}
	return []Field{
		{Name: "Length", Start: 0, End: 1, Value: fmt.Sprintf("%d", m.Length)},
		temp("Hot water", 1, m.HotWater),
		temp("Boiler", 3, m.Boiler),
		temp("Departure 1", 5, m.Departure1),
		temp("Departure 2", 7, m.Departure2),
		temp("Departure 3", 9, m.Departure3),
		hexField("Unknown", 11, 37, m.Unknown1[:]),
		temp("Ambient 1", 37, m.Ambient1),
		temp("Ambient 2", 39, m.Ambient2),
		temp("Ambient 3", 41, m.Ambient3),
		hexField("Unknown", 43, 49, m.Unknown2[:]),
		temp("Setpoint 1", 49, m.Setpoint1),
		temp("Setpoint 2", 51, m.Setpoint2),
		temp("Setpoint 3", 53, m.Setpoint3),
		temp("Outside", 55, m.Outside),
	}
}

// Weekday order of the area body schedule.
const (
	AreaSunday = iota
	AreaMonday
	AreaTuesday
	AreaWednesday
	AreaThursday
	AreaFriday
	AreaSaturday
)

var areaDayNames = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// AreaBody is the zone program: setpoints, mode, flags and the weekly schedule.
type AreaBody struct {
	Cmd     [4]byte
	Cmd2    [4]byte // Echo of Cmd
	Length  byte
	Comfort byte // Setpoint byte, see schedule.EncodeSetpoint
	Reduced byte
	Frost   byte
	Mode    Mode
	Flags   AreaFlags
	Unknown byte
	Days    [7][6]byte // Sunday first
}

func (m *AreaBody) Kind() Kind { return KindArea }

func (m *AreaBody) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, 57)
	b = append(b, m.Cmd[:]...)
	b = append(b, m.Cmd2[:]...)
	b = append(b, m.Length, m.Comfort, m.Reduced, m.Frost, byte(m.Mode), m.Flags.Pack(), m.Unknown)
	for _, d := range m.Days {
		b = append(b, d[:]...)
	}
	return b, nil
}

func (m *AreaBody) UnmarshalBinary(data []byte) error {
	r := reader{b: data}
	r.fill(m.Cmd[:])
	r.fill(m.Cmd2[:])
	m.Length = r.u8()
	m.Comfort = r.u8()
	m.Reduced = r.u8()
	m.Frost = r.u8()
	m.Mode = Mode(r.u8())
	m.Flags = UnpackAreaFlags(r.u8())
	m.Unknown = r.u8()
	for i := range m.Days {
		r.fill(m.Days[i][:])
	}
	return r.err
}

func (m *AreaBody) Validate() error {
	if m.Cmd != m.Cmd2 {
		return fmt.Errorf("command %x not echoed (got %x)", m.Cmd, m.Cmd2)
	}
	if m.Length != AreaLength {
		return fmt.Errorf("length 0x%02x, want 0x%02x", m.Length, AreaLength)
	}
	return nil
}

func (m *AreaBody) String() string {
	return fmt.Sprintf("Area{mode=%s comfort=%d reduced=%d frost=%d %s}",
		m.Mode, m.Comfort, m.Reduced, m.Frost, m.Flags)
}

func (m *AreaBody) Fields() []Field {
	fields := []Field{
		hexField("Cmd", 0, 4, m.Cmd[:]),
		hexField("Cmd2", 4, 8, m.Cmd2[:]),
		{Name: "Length", Start: 8, End: 9, Value: fmt.Sprintf("%02x", m.Length)},
		{Name: "Comfort", Start: 9, End: 10, Value: setpointString(m.Comfort)},
		{Name: "Reduced", Start: 10, End: 11, Value: setpointString(m.Reduced)},
		{Name: "Frost", Start: 11, End: 12, Value: setpointString(m.Frost)},
		{Name: "Mode", Start: 12, End: 13, Value: m.Mode.String()},
		{Name: "Flags", Start: 13, End: 14, Value: m.Flags.String()},
		{Name: "Unknown", Start: 14, End: 15, Value: fmt.Sprintf("%02x", m.Unknown)},
	}
	for i, d := range m.Days {
		start := 15 + i*6
		fields = append(fields, Field{Name: areaDayNames[i], Start: start, End: start + 6, Value: FormatDay(d)})
	}
	return fields
}

func setpointString(b byte) string {
	return fmt.Sprintf("%.1f", float64(int(b)+50)/10)
}

// FormatDay renders a 48-slot day mask as a string of 0/1, slot 0 first.
func FormatDay(mask [6]byte) string {
	out := make([]byte, 0, 48)
	for _, b := range mask {
		for bit := 0; bit < 8; bit++ {
			if b&(1<<bit) != 0 {
				out = append(out, '1')
			} else {
				out = append(out, '0')
			}
		}
	}
	return string(out)
}

// BoilerBody is the boiler status block (signature a0f00015).
type BoilerBody struct {
	Cmd    [4]byte
	Cmd2   [4]byte
	Length byte
	Data   [42]byte
}

func (m *BoilerBody) Kind() Kind { return KindBoiler }

func (m *BoilerBody) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, 51)
	b = append(b, m.Cmd[:]...)
	b = append(b, m.Cmd2[:]...)
	b = append(b, m.Length)
	return append(b, m.Data[:]...), nil
}

func (m *BoilerBody) UnmarshalBinary(data []byte) error {
	r := reader{b: data}
	r.fill(m.Cmd[:])
	r.fill(m.Cmd2[:])
	m.Length = r.u8()
	r.fill(m.Data[:])
	return r.err
}

func (m *BoilerBody) Validate() error {
	if m.Cmd != m.Cmd2 {
		return fmt.Errorf("command %x not echoed (got %x)", m.Cmd, m.Cmd2)
	}
	if m.Length != BoilerLength {
		return fmt.Errorf("length 0x%02x, want 0x%02x", m.Length, BoilerLength)
	}
	return nil
}

func (m *BoilerBody) String() string {
	return fmt.Sprintf("Boiler{cmd=%x data=%x}", m.Cmd, m.Data)
}

func (m *BoilerBody) Fields() []Field {
	return []Field{
		hexField("Cmd", 0, 4, m.Cmd[:]),
		hexField("Cmd2", 4, 8, m.Cmd2[:]),
		{Name: "Length", Start: 8, End: 9, Value: fmt.Sprintf("%02x", m.Length)},
		hexField("Data", 9, 51, m.Data[:]),
	}
}

// HolidayBody carries the holiday (absence) period. It shares the boiler
// status layout; timestamps are seconds with their 16-bit halves swapped.
type HolidayBody struct {
	Cmd    [4]byte
	Cmd2   [4]byte
	Length byte
	Start  [8]byte
	End    [8]byte
	Date1  [8]byte
	Data   [18]byte
}

func (m *HolidayBody) Kind() Kind { return KindHoliday }

func (m *HolidayBody) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, 51)
	b = append(b, m.Cmd[:]...)
	b = append(b, m.Cmd2[:]...)
	b = append(b, m.Length)
	b = append(b, m.Start[:]...)
	b = append(b, m.End[:]...)
	b = append(b, m.Date1[:]...)
	return append(b, m.Data[:]...), nil
}

func (m *HolidayBody) UnmarshalBinary(data []byte) error {
	r := reader{b: data}
	r.fill(m.Cmd[:])
	r.fill(m.Cmd2[:])
	m.Length = r.u8()
	r.fill(m.Start[:])
	r.fill(m.End[:])
	r.fill(m.Date1[:])
	r.fill(m.Data[:])
	return r.err
}

func (m *HolidayBody) Validate() error {
	if m.Cmd != m.Cmd2 {
		return fmt.Errorf("command %x not echoed (got %x)", m.Cmd, m.Cmd2)
	}
	if m.Length != BoilerLength {
		return fmt.Errorf("length 0x%02x, want 0x%02x", m.Length, BoilerLength)
	}
	return nil
}

// HolidayTimestamp decodes a word-swapped seconds counter.
func HolidayTimestamp(b [8]byte) time.Time {
	secs := uint32(b[2])<<24 | uint32(b[3])<<16 | uint32(b[0])<<8 | uint32(b[1])
	return time.Unix(int64(secs), 0).UTC()
}

func (m *HolidayBody) StartTime() time.Time { return HolidayTimestamp(m.Start) }
func (m *HolidayBody) EndTime() time.Time   { return HolidayTimestamp(m.End) }
func (m *HolidayBody) Date1Time() time.Time { return HolidayTimestamp(m.Date1) }

func (m *HolidayBody) String() string {
	return fmt.Sprintf("Holiday{start=%s end=%s}",
		m.StartTime().Format(time.RFC3339), m.EndTime().Format(time.RFC3339))
}

func (m *HolidayBody) Fields() []Field {
	return []Field{
		hexField("Cmd", 0, 4, m.Cmd[:]),
		hexField("Cmd2", 4, 8, m.Cmd2[:]),
		{Name: "Length", Start: 8, End: 9, Value: fmt.Sprintf("%02x", m.Length)},
		{Name: "Start", Start: 9, End: 17, Value: m.StartTime().Format(time.RFC3339)},
		{Name: "End", Start: 17, End: 25, Value: m.EndTime().Format(time.RFC3339)},
		{Name: "Date1", Start: 25, End: 33, Value: m.Date1Time().Format(time.RFC3339)},
		hexField("Data", 33, 51, m.Data[:]),
	}
}

// DataBody is a length-prefixed opaque register dump (data1, data3, data4).
type DataBody struct {
	Length byte
	Items  []byte
}

func (m *DataBody) Kind() Kind      { return KindData }
func (m *DataBody) Validate() error { return nil }

func (m *DataBody) MarshalBinary() ([]byte, error) {
	if len(m.Items) > 0xff {
		return nil, fmt.Errorf("data body too large: %d items", len(m.Items))
	}
	return append([]byte{byte(len(m.Items))}, m.Items...), nil
}

func (m *DataBody) UnmarshalBinary(data []byte) error {
	r := reader{b: data}
	m.Length = r.u8()
	m.Items = r.bytes(int(m.Length))
	return r.err
}

func (m *DataBody) String() string {
	return fmt.Sprintf("Data{len=%d items=%s}", m.Length, hex.EncodeToString(m.Items))
}

// SondeInit is sent once by a freshly paired external probe.
type SondeInit struct {
	Data [2]byte
}

func (m *SondeInit) Kind() Kind                     { return KindSondeInit }
func (m *SondeInit) MarshalBinary() ([]byte, error) { return append([]byte(nil), m.Data[:]...), nil }
func (m *SondeInit) Validate() error                { return nil }

func (m *SondeInit) UnmarshalBinary(data []byte) error {
	r := reader{b: data}
	r.fill(m.Data[:])
	return r.err
}

// SondeInitReply is the boiler's empty acknowledgement of SondeInit.
type SondeInitReply struct{}

func (m *SondeInitReply) Kind() Kind                        { return KindSondeInitReply }
func (m *SondeInitReply) MarshalBinary() ([]byte, error)    { return []byte{}, nil }
func (m *SondeInitReply) UnmarshalBinary(data []byte) error { return nil }
func (m *SondeInitReply) Validate() error                   { return nil }

// SondeTemperature reports the outside temperature measured by the probe.
type SondeTemperature struct {
	Data        [9]byte
	Temperature int16 // Tenths of a degree
}

func (m *SondeTemperature) Kind() Kind      { return KindSondeTemperature }
func (m *SondeTemperature) Validate() error { return nil }

func (m *SondeTemperature) MarshalBinary() ([]byte, error) {
	return appendI16(append([]byte(nil), m.Data[:]...), m.Temperature), nil
}

func (m *SondeTemperature) UnmarshalBinary(data []byte) error {
	r := reader{b: data}
	r.fill(m.Data[:])
	m.Temperature = r.i16()
	return r.err
}

func (m *SondeTemperature) String() string {
	return fmt.Sprintf("SondeTemperature{%.1f°C}", Celsius(m.Temperature))
}

func (m *SondeTemperature) Fields() []Field {
	return []Field{
		hexField("Cmd", 0, 9, m.Data[:]),
		{Name: "Temperature", Start: 9, End: 11, Value: fmt.Sprintf("%.1f", Celsius(m.Temperature))},
	}
}

// SondeTemperatureReply is the boiler's answer to SondeTemperature: its clock.
type SondeTemperatureReply struct {
	DateBody
}

func (m *SondeTemperatureReply) Kind() Kind { return KindSondeTemperatureReply }
