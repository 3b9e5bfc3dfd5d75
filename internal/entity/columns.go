package entity

import "strings"

// NotFound marks a field whose header is missing from the sheet.
const NotFound = -1

type Field string

const (
	FieldSchool   Field = "school"
	FieldURL      Field = "url"
	FieldDivision Field = "division"

	FieldRCName  Field = "rc_name"
	FieldOLName  Field = "ol_name"
	FieldRCEmail Field = "rc_email"
	FieldOLEmail Field = "ol_email"

	FieldRCTwitter Field = "rc_twitter"
	FieldOLTwitter Field = "ol_twitter"

	FieldRCContacted Field = "rc_contacted"
	FieldOLContacted Field = "ol_contacted"
	FieldRCNotes     Field = "rc_notes"
	FieldOLNotes     Field = "ol_notes"

	FieldRCStage       Field = "rc_stage"
	FieldRCNextContact Field = "rc_next_contact"
	FieldOLStage       Field = "ol_stage"
	FieldOLNextContact Field = "ol_next_contact"

	FieldRCResponded Field = "rc_responded"
	FieldOLResponded Field = "ol_responded"

	FieldRCTwitterStatus Field = "rc_twitter_status"
	FieldOLTwitterStatus Field = "ol_twitter_status"
	FieldRCEmailStatus   Field = "rc_email_status"
	FieldOLEmailStatus   Field = "ol_email_status"
)

type fieldKeywords struct {
	Field    Field
	Keywords []string
}

// fieldTable is resolved top to bottom. Fields whose headers are supersets of
// others ("rc email status" vs "rc email") come first and claim their column.
var fieldTable = []fieldKeywords{
	{FieldRCEmailStatus, []string{"rc email status"}},
	{FieldOLEmailStatus, []string{"ol email status", "oc email status"}},
	{FieldRCTwitterStatus, []string{"rc twitter status"}},
	{FieldOLTwitterStatus, []string{"ol twitter status", "oc twitter status"}},

	{FieldRCResponded, []string{"rc responded"}},
	{FieldOLResponded, []string{"ol responded"}},
	{FieldRCStage, []string{"rc stage"}},
	{FieldOLStage, []string{"ol stage"}},
	{FieldRCNextContact, []string{"rc next contact", "rc next"}},
	{FieldOLNextContact, []string{"ol next contact", "ol next"}},
	{FieldRCContacted, []string{"rc contacted", "recruiting contacted"}},
	{FieldOLContacted, []string{"ol contacted", "oc contacted", "oline contacted", "position contacted"}},
	{FieldRCNotes, []string{"rc notes"}},
	{FieldOLNotes, []string{"ol notes", "oc notes"}},

	{FieldOLEmail, []string{"oc email", "ol email", "oline email", "position coach email"}},
	{FieldRCEmail, []string{"rc email", "recruiting coordinator email", "recruiting email"}},
	{FieldRCTwitter, []string{"rc twitter"}},
	{FieldOLTwitter, []string{"ol twitter", "oc twitter"}},

	{FieldOLName, []string{"oline coach", "ol coach", "o-line coach", "offensive line coach", "oline", "position coach"}},
	{FieldRCName, []string{"recruiting coordinator", "recruiting coord", "rc name"}},

	{FieldSchool, []string{"school"}},
	{FieldURL, []string{"url"}},
	{FieldDivision, []string{"division"}},
}

// FindColumn returns the index of the first header containing any keyword,
// or NotFound.
func FindColumn(headers []string, keywords []string) int {
	return findColumn(headers, keywords, nil)
}

// findColumn is a first match in header order over the headers no earlier
// field has claimed. Within ResolveColumns this can differ from FindColumn:
// a header already taken by a field higher in fieldTable is skipped.
func findColumn(headers []string, keywords []string, claimed map[int]bool) int {
	for i, h := range headers {
		if claimed[i] {
			continue
		}
		lower := strings.ToLower(strings.TrimSpace(h))
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return i
			}
		}
	}
	return NotFound
}

// ColumnMap is the per-snapshot resolution of every semantic field.
type ColumnMap struct {
	index   map[Field]int
	Headers []string
}

// ResolveColumns runs the keyword table once against a header row.
func ResolveColumns(headers []string) ColumnMap {
	cols := ColumnMap{index: make(map[Field]int, len(fieldTable)), Headers: headers}
	claimed := make(map[int]bool)

	for _, fk := range fieldTable {
		idx := findColumn(headers, fk.Keywords, claimed)
		cols.index[fk.Field] = idx
		if idx != NotFound {
			claimed[idx] = true
		}
	}

	return cols
}

func (c ColumnMap) Index(f Field) int {
	idx, ok := c.index[f]
	if !ok {
		return NotFound
	}
	return idx
}

func (c ColumnMap) Has(f Field) bool {
	return c.Index(f) != NotFound
}

// Value reads a field from a row, returning "" for missing columns or short rows.
func (c ColumnMap) Value(row []string, f Field) string {
	idx := c.Index(f)
	if idx == NotFound || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// Missing lists the fields that did not resolve, in table order.
func (c ColumnMap) Missing(fields ...Field) []Field {
	var out []Field
	for _, f := range fields {
		if !c.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// DefaultHeaders is the header row of a freshly provisioned sheet.
var DefaultHeaders = []string{
	"School", "URL", "recruiting coordinator name", "Oline Coach",
	"RC twitter", "OC twitter", "RC email", "OC email",
	"RC Contacted", "OL Contacted", "RC Notes", "OL Notes",
	"RC Stage", "RC Next Contact", "OL Stage", "OL Next Contact",
	"RC Responded", "OL Responded",
	"RC Twitter Status", "OL Twitter Status",
	"RC Email Status", "OL Email Status",
}
