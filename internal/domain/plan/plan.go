// Package plan defines the generated project plan and its editable sections.
package plan

import "time"

// Plan is a structured project plan produced by the generation pipeline.
// JSON field names follow the output contract given to the model.
type Plan struct {
	ID           string     `json:"id"`
	OwnerID      string     `json:"ownerId,omitempty"`
	Title        string     `json:"title"`
	OriginalIdea string     `json:"originalIdea"`
	Summary      string     `json:"summary"`
	Features     Features   `json:"features"`
	TechStack    TechStack  `json:"techStack"`
	UIUX         UIUX       `json:"uiux"`
	Security     Security   `json:"security"`
	Testing      Testing    `json:"testing"`
	Deployment   Deployment `json:"deployment"`
	Roadmap      Roadmap    `json:"roadmap"`
	TemplateID   *string    `json:"templateId"`
	Version      int        `json:"version,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Features groups features by priority.
type Features struct {
	MVP      []string `json:"mvp"`
	High     []string `json:"high"`
	Optional []string `json:"optional"`
}

// TechStack lists recommended technologies per layer.
type TechStack struct {
	Frontend   []string `json:"frontend"`
	Backend    []string `json:"backend"`
	Database   []string `json:"database"`
	Deployment []string `json:"deployment"`
	Other      []string `json:"other"`
}

// UIUX holds user interface and experience considerations.
type UIUX struct {
	DesignPrinciples []string `json:"designPrinciples"`
	UserExperience   []string `json:"userExperience"`
	Accessibility    []string `json:"accessibility"`
}

// Security holds security recommendations.
type Security struct {
	Authentication []string `json:"authentication"`
	DataProtection []string `json:"dataProtection"`
	APISecurity    []string `json:"apiSecurity"`
}

// Testing holds the testing strategy per level.
type Testing struct {
	UnitTesting        []string `json:"unitTesting"`
	IntegrationTesting []string `json:"integrationTesting"`
	E2ETesting         []string `json:"e2eTesting"`
}

// Deployment holds infrastructure recommendations.
type Deployment struct {
	Hosting    []string `json:"hosting"`
	CICD       []string `json:"cicd"`
	Monitoring []string `json:"monitoring"`
}

// Roadmap is an ordered list of delivery phases.
type Roadmap struct {
	Phases []Phase `json:"phases"`
}

// Phase is one step of the roadmap.
type Phase struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Duration    string   `json:"duration"`
	Tasks       []string `json:"tasks"`
}

// Sections is the persisted body of a plan: everything except identity,
// ownership and timestamps.
type Sections struct {
	Summary    string     `json:"summary"`
	Features   Features   `json:"features"`
	TechStack  TechStack  `json:"techStack"`
	UIUX       UIUX       `json:"uiux"`
	Security   Security   `json:"security"`
	Testing    Testing    `json:"testing"`
	Deployment Deployment `json:"deployment"`
	Roadmap    Roadmap    `json:"roadmap"`
}

// Sections returns the plan body.
func (p *Plan) Sections() Sections {
	return Sections{
		Summary:    p.Summary,
		Features:   p.Features,
		TechStack:  p.TechStack,
		UIUX:       p.UIUX,
		Security:   p.Security,
		Testing:    p.Testing,
		Deployment: p.Deployment,
		Roadmap:    p.Roadmap,
	}
}

// SetSections replaces the plan body.
func (p *Plan) SetSections(s Sections) {
	p.Summary = s.Summary
	p.Features = s.Features
	p.TechStack = s.TechStack
	p.UIUX = s.UIUX
	p.Security = s.Security
	p.Testing = s.Testing
	p.Deployment = s.Deployment
	p.Roadmap = s.Roadmap
}

// Normalize replaces nil lists with empty ones so the plan always
// serializes with [] instead of null.
func (p *Plan) Normalize() {
	for _, l := range []*[]string{
		&p.Features.MVP, &p.Features.High, &p.Features.Optional,
		&p.TechStack.Frontend, &p.TechStack.Backend, &p.TechStack.Database, &p.TechStack.Deployment, &p.TechStack.Other,
		&p.UIUX.DesignPrinciples, &p.UIUX.UserExperience, &p.UIUX.Accessibility,
		&p.Security.Authentication, &p.Security.DataProtection, &p.Security.APISecurity,
		&p.Testing.UnitTesting, &p.Testing.IntegrationTesting, &p.Testing.E2ETesting,
		&p.Deployment.Hosting, &p.Deployment.CICD, &p.Deployment.Monitoring,
	} {
		if *l == nil {
			*l = []string{}
		}
	}
	if p.Roadmap.Phases == nil {
		p.Roadmap.Phases = []Phase{}
	}
	for i := range p.Roadmap.Phases {
		if p.Roadmap.Phases[i].Tasks == nil {
			p.Roadmap.Phases[i].Tasks = []string{}
		}
	}
}

// Default and maximum page sizes for ListOptions.
const (
	DefaultListLimit = 10
	MaxListLimit     = 100
)

// ListOptions controls paging of an owner's plans.
type ListOptions struct {
	Limit  int
	Offset int
}

// Normalized clamps the options into the accepted range.
func (o ListOptions) Normalized() ListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}
