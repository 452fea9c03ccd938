package portfolio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/khoahotran/folio/pkg/sanitize"
	"github.com/khoahotran/folio/pkg/schema"
	"github.com/khoahotran/folio/pkg/urlcanon"
)

const (
	MsgDocumentRequired = "Portfolio data is required"
	MsgPersonalRequired = "Personal details are required"
	MsgTemplateRequired = "Template is required"
)

var (
	phonePattern = regexp.MustCompile(`^\+?[0-9\s\-().]{7,20}$`)
	validate     = validator.New()
)

var (
	richText = schema.Transform(sanitize.HTML)
	email    = schema.Check(func(s string) bool { return validate.Var(s, "email") == nil }, "Invalid email")
	phone    = schema.Match(phonePattern, "Invalid phone number format")
)

// Validate checks a decoded JSON document and returns the trimmed, sanitized
// and canonicalized portfolio, or every issue found.
func Validate(raw any) schema.Result[Portfolio] {
	return schema.Run(raw, MsgDocumentRequired, portfolioFrom)
}

// Revalidate runs an already typed portfolio through the schema again.
func Revalidate(p Portfolio) schema.Result[Portfolio] {
	raw, err := toDocument(p)
	if err != nil {
		// Portfolio is plain data; marshalling cannot fail.
		panic(fmt.Sprintf("portfolio: encode for revalidation: %v", err))
	}
	return Validate(raw)
}

func ValidatePersonal(raw any) schema.Result[Personal] {
	return schema.Run(raw, MsgPersonalRequired, personalFrom)
}

func ValidateEducation(raw any) schema.Result[Education] {
	return schema.Run(raw, schema.MsgExpectedObject, educationFrom)
}

func ValidateExperience(raw any) schema.Result[Experience] {
	return schema.Run(raw, schema.MsgExpectedObject, experienceFrom)
}

func ValidateProject(raw any) schema.Result[Project] {
	return schema.Run(raw, schema.MsgExpectedObject, projectFrom)
}

func ValidateCertification(raw any) schema.Result[Certification] {
	return schema.Run(raw, schema.MsgExpectedObject, certificationFrom)
}

func ValidateSkills(raw any) schema.Result[Skills] {
	return schema.Run(raw, schema.MsgExpectedObject, skillsFrom)
}

// DecodeDocument parses a JSON body into the generic form Validate expects.
func DecodeDocument(data []byte) (any, error) {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode portfolio document: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("decode portfolio document: trailing data")
	}
	return raw, nil
}

func toDocument(p Portfolio) (any, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return DecodeDocument(data)
}

func portfolioFrom(o *schema.Object) Portfolio {
	p := Portfolio{
		Template: o.PositiveInt("template", MsgTemplateRequired),
	}
	if personal, ok := o.Nested("personal", MsgPersonalRequired); ok {
		p.Personal = personalFrom(personal)
	}
	p.ProfessionalSummary = o.OptionalString("professional_summary", richText)
	p.Education = schema.List(o, "education", educationFrom)
	p.Experience = schema.List(o, "experience", experienceFrom)
	if skills, ok := o.OptionalNested("skills"); ok {
		p.Skills = skillsFrom(skills)
	} else {
		p.Skills = Skills{Technical: []string{}, Soft: []string{}}
	}
	p.Projects = schema.List(o, "projects", projectFrom)
	p.Certifications = schema.List(o, "certifications", certificationFrom)
	return p
}

func personalFrom(o *schema.Object) Personal {
	return Personal{
		Name:     o.RequiredString("name", "Name is required"),
		JobTitle: o.RequiredString("job_title", "Job title is required"),
		Email:    o.OptionalString("email", email),
		Phone:    o.OptionalString("phone", phone),
		LinkedIn: o.OptionalString("linkedin", urlcanon.Rule(urlcanon.LinkedInProfile)),
		GitHub:   o.OptionalString("github", urlcanon.Rule(urlcanon.GitHubProfile)),
		Location: o.OptionalString("location"),
	}
}

func educationFrom(o *schema.Object) Education {
	return Education{
		Degree:      o.RequiredString("degree", "Degree is required"),
		Institution: o.OptionalString("institution"),
		Grade:       o.OptionalString("grade"),
		StartDate:   o.RequiredString("start_date", "Start date is required"),
		EndDate:     o.RequiredString("end_date", "End date is required"),
	}
}

func experienceFrom(o *schema.Object) Experience {
	return Experience{
		JobTitle:    o.RequiredString("job_title", "Job title is required"),
		Company:     o.RequiredString("company", "Company is required"),
		StartDate:   o.RequiredString("start_date", "Start date is required"),
		EndDate:     o.RequiredString("end_date", "End date is required"),
		Description: o.RequiredString("description", "Description is required", richText),
	}
}

func skillsFrom(o *schema.Object) Skills {
	return Skills{
		Technical: o.Strings("technical"),
		Soft:      o.Strings("soft"),
	}
}

func projectFrom(o *schema.Object) Project {
	return Project{
		Name:         o.RequiredString("name", "Project name is required"),
		Description:  o.RequiredString("description", "Description is required", richText),
		Technologies: o.Strings("technologies"),
		URL:          o.OptionalString("url", urlcanon.Rule(urlcanon.Generic)),
		Repo:         o.OptionalString("repo", urlcanon.Rule(urlcanon.GitHubRepo)),
	}
}

func certificationFrom(o *schema.Object) Certification {
	return Certification{
		Name:     o.RequiredString("name", "Certification name is required"),
		IssuedBy: o.OptionalString("issued_by"),
		Date:     o.OptionalString("date"),
	}
}
