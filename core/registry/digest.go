package registry

import (
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint returns a stable hex digest of the type's structural shape:
// field names, resolved types, optionality, and everything reachable through
// nested struct types. Recursive type graphs are handled by emitting a back
// reference the second time a concrete key is seen, so the digest terminates
// and two structurally identical graphs always digest identically.
func (c *ConcreteType) Fingerprint() string {
	h, err := blake2b.New256(nil)
	if err != nil {
		// blake2b.New256 only fails for oversized keys; we pass none.
		panic(err)
	}

	writeConcreteDigest(h, c, make(map[string]bool))
	return hex.EncodeToString(h.Sum(nil))
}

func writeConcreteDigest(w io.Writer, c *ConcreteType, seen map[string]bool) {
	key := c.String()
	if seen[key] {
		fmt.Fprintf(w, "ref(%s)", key)
		return
	}
	seen[key] = true

	fmt.Fprintf(w, "struct(%s){", key)
	for _, f := range c.fields {
		fmt.Fprintf(w, "%s", f.Name)
		if f.Optional {
			io.WriteString(w, "*")
		}
		io.WriteString(w, ":")
		writeTypeDigest(w, f.Type, seen)
		io.WriteString(w, ";")
	}
	io.WriteString(w, "}")
}

func writeTypeDigest(w io.Writer, t Type, seen map[string]bool) {
	switch tt := t.(type) {
	case StructType:
		writeConcreteDigest(w, tt.Of(), seen)
	case ListType:
		io.WriteString(w, "List<")
		writeTypeDigest(w, tt.Elem(), seen)
		io.WriteString(w, ">")
	case MapType:
		io.WriteString(w, "Map<")
		writeTypeDigest(w, tt.Key(), seen)
		io.WriteString(w, ",")
		writeTypeDigest(w, tt.Elem(), seen)
		io.WriteString(w, ">")
	default:
		io.WriteString(w, t.Kind().String())
	}
	if t.Nullable() {
		io.WriteString(w, "?")
	}
}
