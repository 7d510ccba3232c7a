package marshal

// magicRange covers the magic numbers one release line wrote, alphas and
// betas included. Finals are the upper bound.
type magicRange struct {
	version string
	lo, hi  uint16
}

var magicRanges = []magicRange{
	{"3.6", 3360, 3379},
	{"3.7", 3390, 3394},
	{"3.8", 3400, 3413},
	{"3.9", 3420, 3425},
	{"3.10", 3430, 3439},
	{"3.11", 3450, 3495},
	{"3.12", 3500, 3531},
	{"3.13", 3550, 3571},
}

// LookupMagic returns the release line for a magic number.
func LookupMagic(no uint16) (string, bool) {
	for _, r := range magicRanges {
		if no >= r.lo && no <= r.hi {
			return r.version, true
		}
	}
	return "", false
}
