package lcd

import (
	"errors"
	"strings"
	"testing"
	"time"

	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"

	"github.com/relabs-tech/rdas/internal/faults"
)

type sleepLog []time.Duration

func (s *sleepLog) sleep(d time.Duration) { *s = append(*s, d) }

func newRecorded() (*Display, *i2ctest.Record, *sleepLog) {
	bus := &i2ctest.Record{}
	sl := &sleepLog{}
	return New(bus, DefaultAddr, WithSleep(sl.sleep)), bus, sl
}

// transfer is one controller byte rebuilt from its six bus writes.
type transfer struct {
	value byte
	mode  Mode
}

// decode checks the nibble/latch framing of every write and returns the
// controller bytes it carried.
func decode(t *testing.T, bus *i2ctest.Record) []transfer {
	t.Helper()
	if len(bus.Ops)%6 != 0 {
		t.Fatalf("bus writes=%d, not a multiple of 6", len(bus.Ops))
	}
	var out []transfer
	for i := 0; i < len(bus.Ops); i += 6 {
		var w [6]byte
		for j := 0; j < 6; j++ {
			op := bus.Ops[i+j]
			if op.Addr != DefaultAddr {
				t.Fatalf("op %d addr=0x%02X want 0x%02X", i+j, op.Addr, DefaultAddr)
			}
			if len(op.W) != 1 || len(op.R) != 0 {
				t.Fatalf("op %d is not a single byte write: %+v", i+j, op)
			}
			w[j] = op.W[0]
			if w[j]&Backlight == 0 {
				t.Fatalf("op %d=0x%02X missing backlight bit", i+j, w[j])
			}
		}
		for _, n := range [][3]byte{{w[0], w[1], w[2]}, {w[3], w[4], w[5]}} {
			if n[0]&Enable != 0 || n[1] != n[0]|Enable || n[2] != n[0] {
				t.Fatalf("bad latch sequence at op %d: % X", i, n)
			}
		}
		if w[0]&0x0F != w[3]&0x0F {
			t.Fatalf("mode bits differ between nibbles at op %d: % X", i, w)
		}
		out = append(out, transfer{
			value: (w[0] & 0xF0) | (w[3] >> 4),
			mode:  Mode(w[0] & 0x01),
		})
	}
	return out
}

func TestTransferByte_ExactSequence(t *testing.T) {
	d, bus, sl := newRecorded()

	if err := d.transferByte('A', ModeData); err != nil {
		t.Fatalf("transferByte error: %v", err)
	}

	want := []byte{0x49, 0x4D, 0x49, 0x19, 0x1D, 0x19}
	if len(bus.Ops) != len(want) {
		t.Fatalf("writes=%d want %d", len(bus.Ops), len(want))
	}
	for i, b := range want {
		if got := bus.Ops[i].W[0]; got != b {
			t.Fatalf("write %d=0x%02X want 0x%02X", i, got, b)
		}
	}

	wantSleeps := []time.Duration{EDelay, EPulse, EDelay, EDelay, EPulse, EDelay}
	if len(*sl) != len(wantSleeps) {
		t.Fatalf("sleeps=%v want %v", *sl, wantSleeps)
	}
	for i := range wantSleeps {
		if (*sl)[i] != wantSleeps[i] {
			t.Fatalf("sleep %d=%s want %s", i, (*sl)[i], wantSleeps[i])
		}
	}
}

func TestTransferByte_Command(t *testing.T) {
	d, bus, _ := newRecorded()

	if err := d.transferByte(byte(Line2), ModeCommand); err != nil {
		t.Fatalf("transferByte error: %v", err)
	}
	want := []byte{0xC8, 0xCC, 0xC8, 0x08, 0x0C, 0x08}
	for i, b := range want {
		if got := bus.Ops[i].W[0]; got != b {
			t.Fatalf("write %d=0x%02X want 0x%02X", i, got, b)
		}
	}
}

func TestInit_Sequence(t *testing.T) {
	d, bus, sl := newRecorded()

	if err := d.Init(); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	got := decode(t, bus)
	if len(got) != len(initSequence) {
		t.Fatalf("transfers=%d want %d", len(got), len(initSequence))
	}
	for i, tr := range got {
		if tr.mode != ModeCommand || tr.value != initSequence[i] {
			t.Fatalf("transfer %d=%+v want command 0x%02X", i, tr, initSequence[i])
		}
	}
	// Six latches per byte plus the final settle.
	if n := len(*sl); n != len(initSequence)*6+1 {
		t.Fatalf("sleeps=%d want %d", n, len(initSequence)*6+1)
	}
}

func TestWriteLine_PadsShortText(t *testing.T) {
	d, bus, _ := newRecorded()

	if err := d.WriteLine("HI", Line1); err != nil {
		t.Fatalf("WriteLine error: %v", err)
	}
	got := decode(t, bus)
	if len(got) != 1+Width {
		t.Fatalf("transfers=%d want %d", len(got), 1+Width)
	}
	if got[0].mode != ModeCommand || got[0].value != byte(Line1) {
		t.Fatalf("first transfer=%+v want command 0x80", got[0])
	}
	var sb strings.Builder
	for _, tr := range got[1:] {
		if tr.mode != ModeData {
			t.Fatalf("character sent in command mode: %+v", tr)
		}
		sb.WriteByte(tr.value)
	}
	if want := "HI" + strings.Repeat(" ", 14); sb.String() != want {
		t.Fatalf("rendered=%q want %q", sb.String(), want)
	}
}

func TestWriteLine_TruncatesLongText(t *testing.T) {
	d, bus, _ := newRecorded()

	if err := d.WriteLine("ABCDEFGHIJKLMNOPQRSTUVWXYZ", Line2); err != nil {
		t.Fatalf("WriteLine error: %v", err)
	}
	got := decode(t, bus)
	if got[0].value != byte(Line2) {
		t.Fatalf("cursor command=0x%02X want 0xC0", got[0].value)
	}
	var sb strings.Builder
	for _, tr := range got[1:] {
		sb.WriteByte(tr.value)
	}
	if sb.String() != "ABCDEFGHIJKLMNOP" {
		t.Fatalf("rendered=%q", sb.String())
	}
}

func TestPad(t *testing.T) {
	cases := []string{"", "   DRIVER IS ", "    MISSING  ", "exactly16chars!!", "much longer than sixteen", "Grüße", "日本語"}
	for _, in := range cases {
		out := Pad(in)
		if n := len([]rune(out)); n != Width {
			t.Fatalf("Pad(%q) has %d characters, want %d", in, n, Width)
		}
		if len([]rune(in)) <= Width && !strings.HasPrefix(out, in) {
			t.Fatalf("Pad(%q)=%q lost the prefix", in, out)
		}
	}
}

func TestWriteLine_NonLatinFallsBack(t *testing.T) {
	d, bus, _ := newRecorded()

	if err := d.WriteLine("日", Line1); err != nil {
		t.Fatalf("WriteLine error: %v", err)
	}
	got := decode(t, bus)
	if got[1].value != '?' {
		t.Fatalf("first character=0x%02X want '?'", got[1].value)
	}
}

type failBus struct{ after, n int }

func (f *failBus) String() string { return "failbus" }

func (f *failBus) Tx(addr uint16, w, r []byte) error {
	f.n++
	if f.n > f.after {
		return errors.New("remote I/O error")
	}
	return nil
}

func (f *failBus) SetSpeed(physic.Frequency) error { return nil }

func TestWriteLine_BusFailureIsIOError(t *testing.T) {
	bus := &failBus{after: 4}
	d := New(bus, DefaultAddr, WithSleep(func(time.Duration) {}))

	err := d.WriteLine("x", Line1)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, faults.ErrIO) {
		t.Fatalf("err=%v, want ErrIO", err)
	}
	if bus.n != 5 {
		t.Fatalf("writes after failure continued: n=%d", bus.n)
	}
}

func TestWriteLines(t *testing.T) {
	d, bus, _ := newRecorded()

	if err := d.WriteLines("one", "two"); err != nil {
		t.Fatalf("WriteLines error: %v", err)
	}
	got := decode(t, bus)
	if len(got) != 2*(1+Width) {
		t.Fatalf("transfers=%d", len(got))
	}
	if got[0].value != byte(Line1) || got[1+Width].value != byte(Line2) {
		t.Fatalf("row commands=0x%02X,0x%02X", got[0].value, got[1+Width].value)
	}
}

func TestClear(t *testing.T) {
	d, bus, _ := newRecorded()

	if err := d.Clear(); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	got := decode(t, bus)
	if len(got) != 1 || got[0].value != 0x01 || got[0].mode != ModeCommand {
		t.Fatalf("Clear sent %+v", got)
	}
}
