package enum

// Members returns the concrete groups covered by the filter. All spans light and dark.
func (g Group) Members() []Group {
	if g == GroupLight || g == GroupDark {
		return []Group{g}
	}
	return []Group{GroupLight, GroupDark}
}
