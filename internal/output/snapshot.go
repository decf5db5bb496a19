package output

import (
	"bytes"
	"encoding/json"
	"strings"
)

// SnapshotExcludeFields lists the fields stripped before comparing scan
// output across runs. Scan and record identity plus wall-clock fields
// vary between otherwise identical runs. A path segment that lands on a
// JSON array applies the rest of the path to every element.
var SnapshotExcludeFields = []string{
	"scanId",
	"startedAt",
	"durationMs",
	"generatedAt",
	"records.id",
	"records.timestamp",
}

// NormalizeForSnapshot strips run-varying fields and re-encodes
// deterministically, so two runs over the same tree compare equal.
func NormalizeForSnapshot(data []byte) ([]byte, error) {
	var parsed map[string]interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, err
	}
	for _, field := range SnapshotExcludeFields {
		pruneField(parsed, strings.Split(field, "."))
	}
	return DeterministicEncode(parsed)
}

// CompareSnapshots reports whether two scan outputs are identical apart
// from run-varying fields.
func CompareSnapshots(a, b []byte) (bool, string) {
	na, err := NormalizeForSnapshot(a)
	if err != nil {
		return false, "failed to normalize snapshot A: " + err.Error()
	}
	nb, err := NormalizeForSnapshot(b)
	if err != nil {
		return false, "failed to normalize snapshot B: " + err.Error()
	}
	if !bytes.Equal(na, nb) {
		return false, "snapshots differ"
	}
	return true, ""
}

// SnapshotEqual compares two values for equality, ignoring run-varying fields.
func SnapshotEqual(a, b interface{}) bool {
	aj, errA := json.Marshal(a)
	bj, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	equal, _ := CompareSnapshots(aj, bj)
	return equal
}

// pruneField deletes the value at the given path. Segments walk object
// keys; an array at any point fans the remaining path out across its
// elements, so "records.id" strips the id from every record.
func pruneField(node interface{}, path []string) {
	if len(path) == 0 {
		return
	}
	switch v := node.(type) {
	case map[string]interface{}:
		if len(path) == 1 {
			delete(v, path[0])
			return
		}
		if child, ok := v[path[0]]; ok {
			pruneField(child, path[1:])
		}
	case []interface{}:
		for _, item := range v {
			pruneField(item, path)
		}
	}
}
