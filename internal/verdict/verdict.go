package verdict

import "fmt"

// Verdict is the user-facing pressure state shown for one inspection.
type Verdict string

const (
	UnderPressure Verdict = "NG : Lo"
	InPressure    Verdict = "OK"
	OverPressure  Verdict = "NG : Hi"
	Unknown       Verdict = "Unknown"
)

// ArtifactMarker is a non-semantic class name that leaks into a model's
// vocabulary from its training directory layout. It must never be
// resolved as a real class.
const ArtifactMarker = ".ipynb_checkpoints"

var classTable = map[string]Verdict{
	"under_pressure": UnderPressure,
	"in_pressure":    InPressure,
	"over_pressure":  OverPressure,
}

// Resolve maps a classifier label to a verdict. It is total: any name
// outside the table, including the artifact marker, resolves to Unknown.
func Resolve(name string) Verdict {
	if name == ArtifactMarker {
		return Unknown
	}
	if v, ok := classTable[name]; ok {
		return v
	}
	return Unknown
}

// FilterClasses builds the index → name table used to interpret a top-1
// class index, with artifact entries removed. The original indices are
// preserved so a filtered-out index simply fails the lookup.
func FilterClasses(classes []string) map[int]string {
	names := make(map[int]string, len(classes))
	for i, n := range classes {
		if n == ArtifactMarker {
			continue
		}
		names[i] = n
	}
	return names
}

// Validate checks that a model vocabulary covers all three semantic
// classes. Called at load time so a misconfigured model fails startup
// instead of resolving everything to Unknown.
func Validate(classes []string) error {
	seen := make(map[string]bool, len(classes))
	for _, n := range classes {
		seen[n] = true
	}
	for name := range classTable {
		if !seen[name] {
			return fmt.Errorf("model vocabulary is missing class %q", name)
		}
	}
	return nil
}
