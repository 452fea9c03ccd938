package portfolio

// ParsedResume is the raw output of the resume parsing service. Any field or
// sub-field may be null.
type ParsedResume struct {
	Personal            *ParsedPersonal        `json:"personal"`
	ProfessionalSummary *string                `json:"professional_summary"`
	Education           []*ParsedEducation     `json:"education"`
	Experience          []*ParsedExperience    `json:"experience"`
	Skills              *ParsedSkills          `json:"skills"`
	Projects            []*ParsedProject       `json:"projects"`
	Certifications      []*ParsedCertification `json:"certifications"`
}

type ParsedPersonal struct {
	Name     *string `json:"name"`
	JobTitle *string `json:"job_title"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	LinkedIn *string `json:"linkedin"`
	GitHub   *string `json:"github"`
	Location *string `json:"location"`
}

type ParsedEducation struct {
	Degree      *string `json:"degree"`
	Institution *string `json:"institution"`
	Grade       *string `json:"grade"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
}

type ParsedExperience struct {
	JobTitle    *string `json:"job_title"`
	Company     *string `json:"company"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
	Description *string `json:"description"`
}

type ParsedSkills struct {
	Technical []string `json:"technical"`
	Soft      []string `json:"soft"`
}

type ParsedProject struct {
	Name         *string  `json:"name"`
	Description  *string  `json:"description"`
	Technologies []string `json:"technologies"`
	URL          *string  `json:"url"`
	Repo         *string  `json:"repo"`
}

type ParsedCertification struct {
	Name     *string `json:"name"`
	IssuedBy *string `json:"issued_by"`
	Date     *string `json:"date"`
}

// DefaultTemplate is assigned to every normalized resume.
const DefaultTemplate = 1

// NormalizeParsedResume fills every null leaf of a parsed resume: scalars
// become "" (optional scalars point at ""), arrays become empty. Nested
// objects are filled field by field so non-null siblings survive. Values are
// copied as-is; trimming and checks are left to Validate.
func NormalizeParsedResume(r *ParsedResume) Portfolio {
	if r == nil {
		r = &ParsedResume{}
	}

	out := Portfolio{
		Template:            DefaultTemplate,
		Personal:            normalizePersonal(r.Personal),
		ProfessionalSummary: orEmptyPtr(r.ProfessionalSummary),
		Education:           make([]Education, 0, len(r.Education)),
		Experience:          make([]Experience, 0, len(r.Experience)),
		Skills:              normalizeSkills(r.Skills),
		Projects:            make([]Project, 0, len(r.Projects)),
		Certifications:      make([]Certification, 0, len(r.Certifications)),
	}

	for _, e := range r.Education {
		if e == nil {
			e = &ParsedEducation{}
		}
		out.Education = append(out.Education, Education{
			Degree:      orEmpty(e.Degree),
			Institution: orEmptyPtr(e.Institution),
			Grade:       orEmptyPtr(e.Grade),
			StartDate:   orEmpty(e.StartDate),
			EndDate:     orEmpty(e.EndDate),
		})
	}

	for _, e := range r.Experience {
		if e == nil {
			e = &ParsedExperience{}
		}
		out.Experience = append(out.Experience, Experience{
			JobTitle:    orEmpty(e.JobTitle),
			Company:     orEmpty(e.Company),
			StartDate:   orEmpty(e.StartDate),
			EndDate:     orEmpty(e.EndDate),
			Description: orEmpty(e.Description),
		})
	}

	for _, p := range r.Projects {
		if p == nil {
			p = &ParsedProject{}
		}
		out.Projects = append(out.Projects, Project{
			Name:         orEmpty(p.Name),
			Description:  orEmpty(p.Description),
			Technologies: orEmptyList(p.Technologies),
			URL:          orEmptyPtr(p.URL),
			Repo:         orEmptyPtr(p.Repo),
		})
	}

	for _, c := range r.Certifications {
		if c == nil {
			c = &ParsedCertification{}
		}
		out.Certifications = append(out.Certifications, Certification{
			Name:     orEmpty(c.Name),
			IssuedBy: orEmptyPtr(c.IssuedBy),
			Date:     orEmptyPtr(c.Date),
		})
	}

	return out
}

func normalizePersonal(p *ParsedPersonal) Personal {
	if p == nil {
		p = &ParsedPersonal{}
	}
	return Personal{
		Name:     orEmpty(p.Name),
		JobTitle: orEmpty(p.JobTitle),
		Email:    orEmptyPtr(p.Email),
		Phone:    orEmptyPtr(p.Phone),
		LinkedIn: orEmptyPtr(p.LinkedIn),
		GitHub:   orEmptyPtr(p.GitHub),
		Location: orEmptyPtr(p.Location),
	}
}

func normalizeSkills(s *ParsedSkills) Skills {
	if s == nil {
		return Skills{Technical: []string{}, Soft: []string{}}
	}
	return Skills{
		Technical: orEmptyList(s.Technical),
		Soft:      orEmptyList(s.Soft),
	}
}

func orEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orEmptyPtr(s *string) *string {
	v := orEmpty(s)
	return &v
}

func orEmptyList(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
