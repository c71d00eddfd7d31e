//go:build fuzz
// +build fuzz

package codec

import (
	"reflect"
	"testing"
)

// FuzzParseRecord checks that anything ParseRecord accepts reaches a stable
// form through Content.
func FuzzParseRecord(f *testing.F) {
	f.Add("{vrq}{1}BARKER{2}ABCD{3}1{4}Test{8}108193016648")
	f.Add("{p30}{3}Cinema 03{1001}A 13{100001}1{100101}BOUNT00{100103}10")
	f.Add("{q31}{2}1769{4}44.80{1001}1{1101}4{1102}NAB{1103}44.80")
	f.Add("{q30}{100101}A{100102}2.5")
	f.Add("{kyl}")
	f.Add("")

	f.Fuzz(func(t *testing.T, text string) {
		if len(text) > 10000 {
			t.Skip("Input too large for fuzz test")
		}

		r, err := ParseRecord(text)
		if err != nil {
			return
		}

		// Zero-valued q30 ticket fields are dropped on the first write, so
		// stability is checked from the canonical form onward.
		canonical, err := ParseRecord(r.Content())
		if err != nil {
			t.Fatalf("re-parse of %q failed: %v", r.Content(), err)
		}
		again, err := ParseRecord(canonical.Content())
		if err != nil {
			t.Fatalf("re-parse of %q failed: %v", canonical.Content(), err)
		}
		if again.Content() != canonical.Content() {
			t.Errorf("Content not stable:\n first %q\nsecond %q", canonical.Content(), again.Content())
		}
		if !reflect.DeepEqual(again.Data(), canonical.Data()) {
			t.Errorf("Data not stable for %q", text)
		}
	})
}

// FuzzParseMessage checks that parsing never panics and that a parsed
// message parses back to the same content.
func FuzzParseMessage(f *testing.F) {
	f.Add("{vrp}{1}BARKER{2}6000!;\n; Header\n{hdr}{1}x{4}2\n{dis}{1}1{2}Filmways")
	f.Add("{vrp}{1}NRLNGA{2}8edi!{3}Cinema 03{4}Cinema Three")
	f.Add("{mov}{1}12{4}Test!")
	f.Add("{vrq}{1}A!{q02}{1}2\x03")

	f.Fuzz(func(t *testing.T, text string) {
		if len(text) > 10000 {
			t.Skip("Input too large for fuzz test")
		}

		msg, err := ParseMessage(text)
		if err != nil {
			return
		}
		again, err := ParseMessage(msg.Content())
		if err != nil {
			t.Fatalf("re-parse of %q failed: %v", msg.Content(), err)
		}
		if len(again.Body()) != len(msg.Body()) {
			t.Errorf("body length changed: %d -> %d", len(msg.Body()), len(again.Body()))
		}
	})
}
