package journal

// NameLookup resolves raw foreign-key values to display names, keyed first by
// the journal field identifier (e.g. "status_id") and then by the raw value.
//
// A NameLookup is read-only while formatting; build it fully before calling
// Format. The zero value is an empty lookup.
type NameLookup map[string]map[string]string

// CustomFieldKey is the lookup field holding custom field names by id.
const CustomFieldKey = "custom_field"

// Add records the display name for raw under field.
func (l *NameLookup) Add(field, raw, name string) {
	if *l == nil {
		*l = make(NameLookup)
	}
	names, ok := (*l)[field]
	if !ok {
		names = make(map[string]string)
		(*l)[field] = names
	}
	names[raw] = name
}

// Merge copies every entry of other into l, overwriting duplicates.
func (l *NameLookup) Merge(other NameLookup) {
	for field, names := range other {
		for raw, name := range names {
			l.Add(field, raw, name)
		}
	}
}

// Resolve returns the display name for raw under field. When no name is
// known it returns raw unchanged and false.
func (l NameLookup) Resolve(field, raw string) (string, bool) {
	name, ok := l[field][raw]
	if !ok || name == "" {
		return raw, false
	}
	return name, true
}
