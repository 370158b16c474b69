// Package raw is the PDF object model used when a file is written: the
// primitive objects, indirect references and their byte serialization.
package raw

import (
	"strconv"
)

// ObjectRef uniquely identifies an indirect PDF object.
type ObjectRef struct {
	Num int
	Gen int
}

func (r ObjectRef) String() string { return strconv.Itoa(r.Num) + " " + strconv.Itoa(r.Gen) + " R" }

// Object is the base interface for all raw PDF objects.
type Object interface {
	Type() string
	IsIndirect() bool
	// Append writes the PDF syntax of the object to b.
	Append(b []byte) []byte
}

// Dictionary represents a PDF dictionary object.
type Dictionary interface {
	Object
	Get(key string) (Object, bool)
	Set(key string, value Object)
	Keys() []string
	Len() int
}

// Serialize returns the PDF syntax of o.
func Serialize(o Object) []byte {
	if o == nil {
		return []byte("null")
	}
	return o.Append(nil)
}
