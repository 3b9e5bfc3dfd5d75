package entity

import (
	"hash/fnv"
	"sort"
	"strings"
)

type Template struct {
	ID      string `yaml:"id" json:"id"`
	Subject string `yaml:"subject" json:"subject"`
	Body    string `yaml:"body" json:"body"`
}

// Render substitutes {name} tokens literally. Unknown tokens stay as written.
func (t Template) Render(vars map[string]string) (subject, body string) {
	return Substitute(t.Subject, vars), Substitute(t.Body, vars)
}

func Substitute(text string, vars map[string]string) string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		text = strings.ReplaceAll(text, "{"+k+"}", vars[k])
	}
	return text
}

// TemplateBook holds the variants per role. When a role has several variants
// each school always gets the same one.
type TemplateBook struct {
	RC   []Template `yaml:"rc" json:"rc"`
	OL   []Template `yaml:"ol" json:"ol"`
	Dual []Template `yaml:"dual" json:"dual"`
	DM   Template   `yaml:"dm" json:"dm"`
}

func (b TemplateBook) variants(role Role) []Template {
	switch role {
	case RoleOL:
		return b.OL
	case RoleDual:
		if len(b.Dual) > 0 {
			return b.Dual
		}
		return b.RC
	default:
		return b.RC
	}
}

func (b TemplateBook) Pick(role Role, school string) Template {
	list := b.variants(role)
	if len(list) == 0 {
		list = DefaultTemplateBook().variants(role)
	}
	if len(list) == 1 {
		return list[0]
	}

	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(school))))
	return list[int(h.Sum32()%uint32(len(list)))]
}

// WithDefaults fills every empty role from the built-in book.
func (b TemplateBook) WithDefaults() TemplateBook {
	def := DefaultTemplateBook()
	if len(b.RC) == 0 {
		b.RC = def.RC
	}
	if len(b.OL) == 0 {
		b.OL = def.OL
	}
	if len(b.Dual) == 0 {
		b.Dual = def.Dual
	}
	if b.DM.Body == "" {
		b.DM = def.DM
	}
	return b
}

func DefaultTemplateBook() TemplateBook {
	return TemplateBook{
		RC:   []Template{{ID: "rc-default", Subject: defaultRCSubject, Body: defaultRCBody}},
		OL:   []Template{{ID: "ol-default", Subject: defaultOLSubject, Body: defaultOLBody}},
		Dual: []Template{{ID: "dual-default", Subject: defaultDualSubject, Body: defaultDualBody}},
		DM:   Template{ID: "dm-default", Body: defaultDMBody},
	}
}

const (
	defaultRCSubject   = "Recruiting Inquiry - {graduation_year} OL - {athlete_name}"
	defaultOLSubject   = "OL Recruiting Inquiry - {graduation_year} - {athlete_name}"
	defaultDualSubject = "Recruiting Inquiry - {graduation_year} OL - {athlete_name}"
)

const defaultRCBody = `Dear Coach {last_name},

My name is {athlete_name}, and I am a {graduation_year} offensive lineman from {high_school} in {city_state}.

I am very interested in {school}'s football program and would love the opportunity to be recruited by your team.

Here are my stats:
• Height: {height}
• Weight: {weight}
• Positions: {positions}
• GPA: {gpa}

You can view my highlight film here: {highlight_url}

I would greatly appreciate any information about {school}'s football program and what it takes to be recruited.

Thank you for your time and consideration.

Respectfully,
{athlete_name}
{phone}`

const defaultOLBody = `Dear Coach {last_name},

My name is {athlete_name}, and I'm a {graduation_year} offensive lineman from {high_school} in {city_state}.

I'm reaching out because I am very interested in playing for {school} and learning from your coaching.

My stats:
• Height: {height}
• Weight: {weight}
• Positions: {positions}

Here's my film: {highlight_url}

I would love the chance to speak with you about the program.

Thank you for your time.

Best regards,
{athlete_name}
{phone}`

const defaultDualBody = `Dear Coach {last_name},

My name is {athlete_name}, and I am a {graduation_year} offensive lineman from {high_school} in {city_state}.

I noticed you serve as both the offensive line coach and recruiting coordinator at {school}, and I wanted to reach out about the opportunity to join your program.

Here are my stats:
• Height: {height}
• Weight: {weight}
• Positions: {positions}
• GPA: {gpa}

You can view my highlight film here: {highlight_url}

I would be grateful for any information about {school}'s football program and recruiting process.

Thank you for your time and consideration.

Respectfully,
{athlete_name}
{phone}`

const defaultDMBody = `Hey Coach {last_name}!

I'm {athlete_name}, a {graduation_year} OL from {high_school} ({city_state}).

I'm very interested in {school}'s program. Here's my film: {highlight_url}

Would love to connect about opportunities. Thanks!`
