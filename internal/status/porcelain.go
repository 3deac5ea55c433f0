package status

import (
	"fmt"
	"sort"
	"strings"
)

// Porcelain renders the changed entries of in as NUL-separated "XY name"
// records, the way a status watcher reads them. Deleted files are written
// as " D" even though Classify reports them as Modified.
func Porcelain(in Input) string {
	codes := Classify(in)
	names := make([]string, 0, len(codes))
	for name, c := range codes {
		if c != Unmodified {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	records := make([]string, 0, len(names))
	for _, name := range names {
		xy := "??"
		switch codes[name] {
		case Conflicted:
			xy = "UU"
		case Modified:
			if _, ok := in.Files[name]; !ok {
				xy = " D"
			} else {
				xy = " M"
			}
		}
		records = append(records, xy+" "+name)
	}
	return strings.Join(records, "\x00")
}

// ParsePorcelain reads records written by Porcelain. Unknown codes are an
// error; " D" maps to Modified.
func ParsePorcelain(raw string) (map[string]Code, error) {
	out := make(map[string]Code)
	if raw == "" {
		return out, nil
	}
	for _, rec := range strings.Split(raw, "\x00") {
		if rec == "" {
			continue
		}
		if len(rec) < 4 || rec[2] != ' ' {
			return nil, fmt.Errorf("malformed porcelain record %q", rec)
		}
		name := rec[3:]
		switch rec[:2] {
		case "UU":
			out[name] = Conflicted
		case "??":
			out[name] = Untracked
		case " D", " M":
			out[name] = Modified
		case "!!":
			out[name] = Ignored
		case "A ":
			out[name] = Staged
		case "MM":
			out[name] = ModifiedStaged
		default:
			return nil, fmt.Errorf("unknown porcelain code %q for %s", rec[:2], name)
		}
	}
	return out, nil
}
