package evolution

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"codeshape/internal/core/errors"
)

// DefaultSeparator splits a snapshot label such as "flask_2.3.1" into its
// name and version.
const DefaultSeparator = "_"

// VersionKey is the integer components of a dotted version.
type VersionKey []int

// DegenerateKey is the key assigned to labels without a parseable version.
func DegenerateKey() VersionKey {
	return VersionKey{0, 0, 0}
}

func (k VersionKey) String() string {
	parts := make([]string, len(k))
	for i, v := range k {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ".")
}

// Compare orders keys component-wise. When one key is a prefix of the other
// the shorter sorts first.
func (k VersionKey) Compare(other VersionKey) int {
	for i := 0; i < len(k) && i < len(other); i++ {
		switch {
		case k[i] < other[i]:
			return -1
		case k[i] > other[i]:
			return 1
		}
	}
	switch {
	case len(k) < len(other):
		return -1
	case len(k) > len(other):
		return 1
	}
	return 0
}

// ParseVersionKey reads the dotted version after the last sep in label.
// On failure it returns the degenerate key together with a
// MALFORMED_VERSION error, so callers can keep going with the key.
func ParseVersionKey(label, sep string) (VersionKey, error) {
	if sep == "" {
		sep = DefaultSeparator
	}
	idx := strings.LastIndex(label, sep)
	if idx < 0 {
		return DegenerateKey(), malformed(label, "missing separator %q", sep)
	}
	version := label[idx+len(sep):]
	if version == "" {
		return DegenerateKey(), malformed(label, "empty version")
	}

	parts := strings.Split(version, ".")
	key := make(VersionKey, 0, len(parts))
	for _, part := range parts {
		if !isDigits(part) {
			return DegenerateKey(), malformed(label, "component %q is not numeric", part)
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return DegenerateKey(), malformed(label, "component %q: %v", part, err)
		}
		key = append(key, n)
	}
	return key, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func malformed(label, format string, args ...any) error {
	err := errors.New(errors.CodeMalformedVersion, fmt.Sprintf(format, args...))
	return errors.AddContext(err, errors.CtxLabel, label)
}

// orderByVersion sorts items by the key keyOf derives from their label.
// Equal keys, including every malformed label, keep their incoming order.
func orderByVersion[T any](items []T, label func(T) string, keyOf func(string) VersionKey) []T {
	type keyed struct {
		item T
		key  VersionKey
	}
	rows := make([]keyed, len(items))
	for i, item := range items {
		rows[i] = keyed{item: item, key: keyOf(label(item))}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].key.Compare(rows[j].key) < 0
	})

	out := make([]T, len(rows))
	for i, row := range rows {
		out[i] = row.item
	}
	return out
}
