package journal

import (
	"fmt"
	"strings"

	"redmine-mcp/internal/types"
)

// Category is the kind of change a journal detail records.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryAttribute
	CategoryCustomField
	CategoryRelation
	CategoryAttachment
	CategoryChecklist
)

// Journal detail property tags as sent by Redmine.
const (
	propertyAttribute   = "attr"
	propertyCustomField = "cf"
	propertyRelation    = "relation"
	propertyAttachment  = "attachment"
)

const (
	// emptyValue stands in for a value missing from the payload.
	emptyValue = "_(empty)_"
	// blankValue marks a value that is present but empty.
	blankValue = `""`

	checklistField = "checklist"
	parentField    = "parent_id"

	suppressedDiffNotice = "_(changed - use include_description_diffs to see diff)_"
)

// largeTextFields are attributes rendered as a diff instead of old → new.
var largeTextFields = map[string]bool{
	"description": true,
}

// fieldLabels maps foreign-key attribute names to short labels.
var fieldLabels = map[string]string{
	"status_id":        "status",
	"tracker_id":       "tracker",
	"priority_id":      "priority",
	"assigned_to_id":   "assignee",
	"category_id":      "category",
	"fixed_version_id": "target version",
	"parent_id":        "parent",
	"project_id":       "project",
	"author_id":        "author",
}

// Classify maps a detail's property tag to its Category.
func Classify(d types.JournalDetail) Category {
	switch d.Property {
	case propertyAttribute:
		if d.Name == checklistField {
			return CategoryChecklist
		}
		return CategoryAttribute
	case propertyCustomField:
		return CategoryCustomField
	case propertyRelation:
		return CategoryRelation
	case propertyAttachment:
		return CategoryAttachment
	default:
		return CategoryUnknown
	}
}

// FormatDetail renders one journal detail as a Markdown list item. Every
// detail yields some output; shapes without a dedicated rendering fall back
// to "property.name: old → new".
func FormatDetail(d types.JournalDetail, lookup NameLookup, opts Options) string {
	switch Classify(d) {
	case CategoryAttachment:
		switch {
		case isSet(d.NewValue) && !isSet(d.OldValue):
			return "- Added attachment: " + *d.NewValue
		case isSet(d.OldValue) && !isSet(d.NewValue):
			return "- Removed attachment: " + *d.OldValue
		}
		return formatFallback(d)

	case CategoryRelation:
		switch {
		case isSet(d.NewValue) && !isSet(d.OldValue):
			return fmt.Sprintf("- Added relation: %s → #%s", d.Name, *d.NewValue)
		case isSet(d.OldValue) && !isSet(d.NewValue):
			return fmt.Sprintf("- Removed relation: %s → #%s", d.Name, *d.OldValue)
		}
		return formatFallback(d)

	case CategoryCustomField:
		label, _ := lookup.Resolve(CustomFieldKey, d.Name)
		return fmt.Sprintf("- %s: %s → %s", label, displayValue(d.OldValue), displayValue(d.NewValue))

	case CategoryChecklist:
		if out, ok := formatChecklist(d); ok {
			return out
		}
		return formatAttribute(d, lookup, opts)

	case CategoryAttribute:
		return formatAttribute(d, lookup, opts)

	default:
		return formatFallback(d)
	}
}

// formatChecklist renders a checklist detail as an item-level diff. It
// reports false when the snapshots cannot be parsed or nothing changed.
func formatChecklist(d types.JournalDetail) (string, bool) {
	lines, err := DiffChecklist(deref(d.OldValue), deref(d.NewValue))
	if err != nil || len(lines) == 0 {
		return "", false
	}

	var sb strings.Builder
	sb.WriteString("- " + d.Name + ":")
	for _, line := range lines {
		sb.WriteString("\n  " + line)
	}
	return sb.String(), true
}

func formatAttribute(d types.JournalDetail, lookup NameLookup, opts Options) string {
	if largeTextFields[d.Name] {
		if !opts.IncludeDescriptionDiffs {
			return fmt.Sprintf("- %s: %s", d.Name, suppressedDiffNotice)
		}
		return fmt.Sprintf("- %s:\n```diff\n%s\n```", d.Name, TextDiff(deref(d.OldValue), deref(d.NewValue)))
	}

	if isForeignKey(d.Name) {
		return fmt.Sprintf("- %s: %s → %s", fieldLabel(d.Name),
			resolveValue(d.Name, d.OldValue, lookup),
			resolveValue(d.Name, d.NewValue, lookup))
	}

	return fmt.Sprintf("- %s: %s → %s", d.Name, displayValue(d.OldValue), displayValue(d.NewValue))
}

func formatFallback(d types.JournalDetail) string {
	return fmt.Sprintf("- %s.%s: %s → %s", d.Property, d.Name, displayValue(d.OldValue), displayValue(d.NewValue))
}

// resolveValue shows a foreign-key value as "Name (raw)" when the lookup
// knows it. Parent references always read as issue numbers.
func resolveValue(field string, v *string, lookup NameLookup) string {
	if !isSet(v) {
		return displayValue(v)
	}
	raw := *v
	name, ok := lookup.Resolve(field, raw)
	switch {
	case ok && field == parentField:
		return fmt.Sprintf("%s (#%s)", name, raw)
	case ok:
		return fmt.Sprintf("%s (%s)", name, raw)
	case field == parentField:
		return "#" + raw
	default:
		return raw
	}
}

func fieldLabel(name string) string {
	if label, ok := fieldLabels[name]; ok {
		return label
	}
	return name
}

func isForeignKey(name string) bool {
	return strings.HasSuffix(name, "_id")
}

func displayValue(v *string) string {
	switch {
	case v == nil:
		return emptyValue
	case *v == "":
		return blankValue
	default:
		return *v
	}
}

func isSet(v *string) bool {
	return v != nil && *v != ""
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
