package fuzztests

import (
	"bytes"
	"testing"

	"nullcheck/internal/annotations/xmldoc"
)

func FuzzAnnotationXML(f *testing.F) {
	addAnnotationSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		m, err := xmldoc.Parse(bytes.NewReader(clip(input)))
		if err != nil {
			return
		}
		// повторное сжатие не должно ничего менять
		m.Compact()
		if n := m.Compact(); n != 0 {
			t.Fatalf("second Compact removed %d entries", n)
		}
		// ключи хранятся без префикса "X:"
		for _, key := range m.Keys() {
			info := m[key]
			id := string([]byte{info.Kind}) + ":" + key
			if got, ok := m.Lookup(id); !ok || got != info {
				t.Fatalf("id %q listed but not found", id)
			}
			other := byte('T')
			if info.Kind == other {
				other = 'M'
			}
			if _, ok := m.Lookup(string([]byte{other}) + ":" + key); ok {
				t.Fatalf("id %q matched with kind %q", id, other)
			}
		}
	})
}
