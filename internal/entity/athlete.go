package entity

// Athlete is the profile every message template is filled from.
type Athlete struct {
	Name           string `yaml:"name" json:"name"`
	GraduationYear string `yaml:"graduation_year" json:"graduation_year"`
	Height         string `yaml:"height" json:"height"`
	Weight         string `yaml:"weight" json:"weight"`
	Positions      string `yaml:"positions" json:"positions"`
	HighSchool     string `yaml:"high_school" json:"high_school"`
	City           string `yaml:"city" json:"city"`
	State          string `yaml:"state" json:"state"`
	GPA            string `yaml:"gpa" json:"gpa"`
	HighlightURL   string `yaml:"highlight_url" json:"highlight_url"`
	Phone          string `yaml:"phone" json:"phone"`
	Email          string `yaml:"email" json:"email"`
}

func (a Athlete) CityState() string {
	switch {
	case a.City != "" && a.State != "":
		return a.City + ", " + a.State
	case a.City != "":
		return a.City
	default:
		return a.State
	}
}

// Variables builds the placeholder table for one coach. The short aliases
// (coach_name, grad_year, position, hudl_link) are kept for older templates.
func (a Athlete) Variables(lastName, school string) map[string]string {
	position := a.Positions
	if position == "" {
		position = "Athlete"
	}

	return map[string]string{
		"last_name":       lastName,
		"coach_name":      lastName,
		"school":          school,
		"athlete_name":    a.Name,
		"graduation_year": a.GraduationYear,
		"grad_year":       a.GraduationYear,
		"height":          a.Height,
		"weight":          a.Weight,
		"positions":       a.Positions,
		"position":        position,
		"high_school":     a.HighSchool,
		"city_state":      a.CityState(),
		"highlight_url":   a.HighlightURL,
		"hudl_link":       a.HighlightURL,
		"gpa":             a.GPA,
		"phone":           a.Phone,
		"email":           a.Email,
	}
}
