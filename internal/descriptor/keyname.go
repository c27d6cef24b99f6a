package descriptor

import "strings"

// CommonKey finds the token run that distinguishes a from b when both
// share a prefix and a suffix, such as the episode token in
// "Show.S01E01.720p" and "Show.S01E02.720p". It returns a's middle
// tokens joined with dots. There is no key when one sequence is
// exhausted while scanning either end, when a's middle run is empty or
// at least half of a, or when b's middle run is empty.
func CommonKey(a, b []string) (string, bool) {
	bi := 0
	for {
		if bi >= len(a) || bi >= len(b) {
			return "", false
		}
		if a[bi] != b[bi] {
			break
		}
		bi++
	}

	ei := 0
	for {
		if ei >= len(a) || ei >= len(b) {
			return "", false
		}
		if a[len(a)-ei-1] != b[len(b)-ei-1] {
			break
		}
		ei++
	}

	c := len(a) - bi - ei
	if c <= 0 || float64(c) >= float64(len(a))/2 || len(b)-bi-ei <= 0 {
		return "", false
	}

	return strings.Join(a[bi:bi+c], "."), true
}

// AssignKeyNames sets KeyName on every file to the candidate key it
// shares with the most siblings in the same directory with the same
// extension. Ties keep the key seen first.
func AssignKeyNames(files []*File) {
	for _, f := range files {
		f.KeyName = keyNameFor(f, files)
	}
}

func keyNameFor(f *File, siblings []*File) string {
	counts := make(map[string]int)
	var order []string

	for _, other := range siblings {
		if other == f || other.DirPath != f.DirPath || other.ExtName != f.ExtName {
			continue
		}

		key, ok := CommonKey(f.NameTokens, other.NameTokens)
		if !ok || key == "" {
			continue
		}

		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}

	best, bestCount := "", 0
	for _, key := range order {
		if counts[key] > bestCount {
			best, bestCount = key, counts[key]
		}
	}
	return best
}
