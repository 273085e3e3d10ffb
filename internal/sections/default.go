package sections

var defaultTable = MustTable(
	Entry{"summary", []string{"summary", "professional summary", "profile", "career summary", "about me", "objective"}},
	Entry{"skills", []string{"skills", "key skills", "technical skills", "professional skills", "core skills", "competencies", "expertise"}},
	Entry{"experience", []string{"experience", "work experience", "professional experience", "employment history", "career history", "work history"}},
	Entry{"education", []string{"education", "academic background", "educational qualifications", "qualifications"}},
	Entry{"projects", []string{"projects", "personal projects", "academic projects", "professional projects"}},
	Entry{"certifications", []string{"certifications", "licenses", "certified courses", "certificates", "certificate"}},
	Entry{"achievements", []string{"achievements", "accomplishments", "awards", "honors"}},
	Entry{"interests", []string{"interests", "hobbies", "activities", "extracurricular activities"}},
	Entry{"languages", []string{"languages", "language proficiency"}},
	Entry{"publications", []string{"publications", "research", "papers"}},
	Entry{"references", []string{"references", "referees"}},
	Entry{"personal", []string{"personal details", "personal information", "contact details"}},
)

// Default returns the built-in CV heading table.
func Default() *Table {
	return defaultTable
}
