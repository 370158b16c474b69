package xref

import (
	"regexp"
	"strconv"

	"github.com/wudi/pdfflow/recovery"
)

var objHeader = regexp.MustCompile(`(?m)^(\d+)\s+0\s+obj\b`)

// Scan rebuilds a table from the "<num> 0 obj" headers found at line
// starts, without reading the xref section. The first header of each
// number wins.
func Scan(data []byte) (*Table, error) {
	t := New()
	for _, m := range objHeader.FindAllSubmatchIndex(data, -1) {
		num, err := strconv.Atoi(string(data[m[2]:m[3]]))
		if err != nil {
			continue
		}
		if _, ok := t.entries[num]; ok {
			continue
		}
		t.entries[num] = int64(m[0])
	}
	if t.Len() == 0 {
		return nil, recovery.Errorf(recovery.InvalidFormat, "xref.Scan", "no objects found")
	}
	return t, nil
}
