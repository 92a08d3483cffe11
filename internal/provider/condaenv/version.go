package condaenv

import (
	"strings"

	"golang.org/x/mod/semver"
)

// versionSatisfies reports whether an installed version meets a
// constraint. Constraints are an optional operator (>=, <=, >, <, ==,
// !=) followed by a version; a bare version matches by prefix, conda
// style ("3.11" accepts "3.11.4"). An empty constraint always matches.
func versionSatisfies(installed, constraint string) bool {
	constraint = strings.TrimSpace(constraint)
	if constraint == "" {
		return true
	}

	op := ""
	for _, candidate := range []string{">=", "<=", "==", "!=", ">", "<"} {
		if strings.HasPrefix(constraint, candidate) {
			op = candidate
			constraint = strings.TrimSpace(constraint[len(candidate):])
			break
		}
	}

	if op == "" || op == "==" {
		return installed == constraint || strings.HasPrefix(installed, constraint+".")
	}

	cmp, ok := compareVersions(installed, constraint)
	if !ok {
		return false
	}

	switch op {
	case ">=":
		return cmp >= 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case "<":
		return cmp < 0
	case "!=":
		return cmp != 0
	}
	return false
}

// compareVersions compares two dotted versions semver-style. Versions
// that do not canonicalize report false.
func compareVersions(a, b string) (int, bool) {
	ca := canonical(a)
	cb := canonical(b)
	if ca == "" || cb == "" {
		return 0, false
	}
	return semver.Compare(ca, cb), true
}

// canonical turns a conda-style version ("3.11", "3.11.4") into a
// canonical semver string, empty if it cannot.
func canonical(v string) string {
	v = "v" + strings.TrimPrefix(strings.TrimSpace(v), "v")
	if !semver.IsValid(v) {
		return ""
	}
	return semver.Canonical(v)
}
