package experimentutils

// Longest returns the longest of the given strings. The first of several
// equally long candidates wins. With no arguments it returns "".
func Longest(vals ...string) string {
	longest := ""
	for _, v := range vals {
		if len(v) > len(longest) {
			longest = v
		}
	}
	return longest
}
