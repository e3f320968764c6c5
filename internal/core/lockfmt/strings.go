package lockfmt

import (
	"bytes"
	"strings"
)

// stringTable interns strings in first-use order.
type stringTable struct {
	refs    map[string]uint32
	entries []string
	size    int
}

func newStringTable() *stringTable {
	return &stringTable{refs: make(map[string]uint32)}
}

// ref returns the sequential index of s, assigning the next one on first use.
func (t *stringTable) ref(s string) uint32 {
	if r, ok := t.refs[s]; ok {
		return r
	}
	r := uint32(len(t.entries))
	t.refs[s] = r
	t.entries = append(t.entries, s)
	t.size += len(s) + 1
	return r
}

// appendTo writes the NUL-terminated strings to buf.
func (t *stringTable) appendTo(buf []byte) []byte {
	for _, s := range t.entries {
		buf = append(buf, s...)
		buf = append(buf, 0)
	}
	return buf
}

// readStringTable splits a NUL-terminated string table.
func readStringTable(b []byte) ([]string, error) {
	if len(b) == 0 {
		return nil, nil
	}
	if b[len(b)-1] != 0 {
		return nil, corrupted("string table is not NUL-terminated", "size", len(b))
	}

	var out []string
	for len(b) > 0 {
		i := bytes.IndexByte(b, 0)
		out = append(out, string(b[:i]))
		b = b[i+1:]
	}
	return out, nil
}

func validString(s string) bool {
	return !strings.ContainsRune(s, 0)
}
