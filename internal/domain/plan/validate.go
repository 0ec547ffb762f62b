package plan

import (
	"github.com/Strob0t/PlanForge/internal/domain"
)

// SaveRequest persists a generated plan for the calling owner.
type SaveRequest struct {
	ID           string  `json:"id" validate:"omitempty,uuid"`
	Title        string  `json:"title" validate:"required,max=200"`
	OriginalIdea string  `json:"originalIdea" validate:"required,max=1000"`
	TemplateID   *string `json:"templateId" validate:"omitempty,max=64"`
	Sections
}

// Validate checks the request fields.
func (r *SaveRequest) Validate() error {
	if err := domain.ValidateStruct(r); err != nil {
		return err
	}
	return validatePhases(r.Roadmap.Phases)
}

// Plan builds an unsaved plan from the request.
func (r *SaveRequest) Plan() *Plan {
	p := &Plan{
		ID:           r.ID,
		Title:        r.Title,
		OriginalIdea: r.OriginalIdea,
		TemplateID:   r.TemplateID,
	}
	p.SetSections(r.Sections)
	p.Normalize()
	return p
}

// UpdateRequest edits individual sections of a stored plan. Nil fields are
// left unchanged.
type UpdateRequest struct {
	Title      *string     `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Summary    *string     `json:"summary,omitempty" validate:"omitempty,max=5000"`
	Features   *Features   `json:"features,omitempty"`
	TechStack  *TechStack  `json:"techStack,omitempty"`
	UIUX       *UIUX       `json:"uiux,omitempty"`
	Security   *Security   `json:"security,omitempty"`
	Testing    *Testing    `json:"testing,omitempty"`
	Deployment *Deployment `json:"deployment,omitempty"`
	Roadmap    *Roadmap    `json:"roadmap,omitempty"`
}

// Validate checks the request fields.
func (r *UpdateRequest) Validate() error {
	if err := domain.ValidateStruct(r); err != nil {
		return err
	}
	if r.Roadmap != nil {
		return validatePhases(r.Roadmap.Phases)
	}
	return nil
}

// Empty reports whether the request changes nothing.
func (r *UpdateRequest) Empty() bool {
	return r.Title == nil && r.Summary == nil && r.Features == nil && r.TechStack == nil &&
		r.UIUX == nil && r.Security == nil && r.Testing == nil && r.Deployment == nil && r.Roadmap == nil
}

// Apply copies every set field onto p.
func (r *UpdateRequest) Apply(p *Plan) {
	if r.Title != nil {
		p.Title = *r.Title
	}
	if r.Summary != nil {
		p.Summary = *r.Summary
	}
	if r.Features != nil {
		p.Features = *r.Features
	}
	if r.TechStack != nil {
		p.TechStack = *r.TechStack
	}
	if r.UIUX != nil {
		p.UIUX = *r.UIUX
	}
	if r.Security != nil {
		p.Security = *r.Security
	}
	if r.Testing != nil {
		p.Testing = *r.Testing
	}
	if r.Deployment != nil {
		p.Deployment = *r.Deployment
	}
	if r.Roadmap != nil {
		p.Roadmap = *r.Roadmap
	}
	p.Normalize()
}

const maxPhases = 12

func validatePhases(phases []Phase) error {
	if len(phases) > maxPhases {
		return domain.ValidateVar("roadmap.phases", len(phases), "max=12")
	}
	for i := range phases {
		if err := domain.ValidateVar("roadmap.phases.title", phases[i].Title, "required,max=200"); err != nil {
			return err
		}
	}
	return nil
}
