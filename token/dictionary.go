package token

func isDigit(c byte) bool { return '0' <= c && c <= '9' }
func isUpper(c byte) bool { return 'A' <= c && c <= 'Z' }

func toLower(c byte) byte {
	if isUpper(c) {
		return c + ('a' - 'A')
	}
	return c
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

// skip returns the index of the first byte at or after i in s for which
// f is false.
func skip(s string, i int, f func(byte) bool) int {
	for i < len(s) && f(s[i]) {
		i++
	}
	return i
}

/*
DictionaryCompare compares two strings for human-friendly display
order, and returns -1, 0, or +1.

Letters are compared case-insensitively, and runs of digits are
compared by numeric value, so "file2" sorts before "file10". Strings
that are equal under these rules are ordered by two tie-breaks, in
this order: at the first numeric run where the number of leading
zeros differs, fewer leading zeros sort first; then, at the first
letter that differs only in case, lowercase sorts first. Case folding
applies to ASCII letters only; other bytes compare by value.

This order is meant for presentation. It is unrelated to the order of
Token.Compare.
*/
func DictionaryCompare(a, b string) int {
	var zerosCmp, caseCmp int
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		ca, cb := a[i], b[j]
		if isDigit(ca) && isDigit(cb) {
			zi := skip(a, i, func(c byte) bool { return c == '0' })
			zj := skip(b, j, func(c byte) bool { return c == '0' })
			ei := skip(a, zi, isDigit)
			ej := skip(b, zj, isDigit)
			if d := (ei - zi) - (ej - zj); d != 0 {
				return sign(d)
			}
			for k := 0; k < ei-zi; k++ {
				if a[zi+k] != b[zj+k] {
					return sign(int(a[zi+k]) - int(b[zj+k]))
				}
			}
			if zerosCmp == 0 {
				zerosCmp = sign((zi - i) - (zj - j))
			}
			i, j = ei, ej
			continue
		}
		la, lb := toLower(ca), toLower(cb)
		if la != lb {
			return sign(int(la) - int(lb))
		}
		if caseCmp == 0 && ca != cb {
			if isUpper(ca) {
				caseCmp = 1
			} else {
				caseCmp = -1
			}
		}
		i++
		j++
	}
	switch {
	case i < len(a):
		return 1
	case j < len(b):
		return -1
	case zerosCmp != 0:
		return zerosCmp
	}
	return caseCmp
}

// DictionaryLess reports whether a sorts before b in dictionary order.
// See DictionaryCompare.
func DictionaryLess(a, b string) bool {
	return DictionaryCompare(a, b) < 0
}
