package repository

import "time"

// Stage is the pipeline stage of a project link.
type Stage string

const (
	StageCIP              Stage = "CIP"
	StageNoReply          Stage = "No Reply"
	StageMeetingScheduled Stage = "Meeting Scheduled"
	StageWon              Stage = "WON"
	StageLost             Stage = "Lost"

	// Legacy stage values still present on old links.
	StageLegacyContacted Stage = "Contacted"
	StageLegacyFollowUp  Stage = "Follow Up"
)

// Priority is the outreach priority of a project link.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Contact represents a databank lead record. Identity is contextual: the
// duplicate resolver derives it from name, email and company rather than a
// single key. Free-text fields are stored as entered; normalization happens
// at comparison time.
type Contact struct {
	ID             string    `bson:"_id,omitempty" json:"id"`
	Name           string    `bson:"name" json:"name"`
	Email          string    `bson:"email,omitempty" json:"email,omitempty"`
	Phone          string    `bson:"phone,omitempty" json:"phone,omitempty"`
	Company        string    `bson:"company,omitempty" json:"company,omitempty"`
	Title          string    `bson:"title,omitempty" json:"title,omitempty"`
	Industry       string    `bson:"industry,omitempty" json:"industry,omitempty"`
	Category       string    `bson:"category,omitempty" json:"category,omitempty"`
	Keywords       string    `bson:"keywords,omitempty" json:"keywords,omitempty"`
	Employees      string    `bson:"employees,omitempty" json:"employees,omitempty"`
	Website        string    `bson:"website,omitempty" json:"website,omitempty"`
	LinkedInURL    string    `bson:"linkedinUrl,omitempty" json:"linkedin_url,omitempty"`
	City           string    `bson:"city,omitempty" json:"city,omitempty"`
	State          string    `bson:"state,omitempty" json:"state,omitempty"`
	Country        string    `bson:"country,omitempty" json:"country,omitempty"`
	CompanyCity    string    `bson:"companyCity,omitempty" json:"company_city,omitempty"`
	CompanyState   string    `bson:"companyState,omitempty" json:"company_state,omitempty"`
	CompanyCountry string    `bson:"companyCountry,omitempty" json:"company_country,omitempty"`
	CreatedAt      time.Time `bson:"createdAt" json:"created_at"`
	UpdatedAt      time.Time `bson:"updatedAt" json:"updated_at"`
}

// ICPDefinition is a project's ideal-customer-profile definition. The default
// company-size range (0, 1000) is a sentinel meaning "not set"; it does not
// count as a criterion on its own.
type ICPDefinition struct {
	TargetIndustries  []string `bson:"targetIndustries,omitempty" json:"target_industries,omitempty"`
	TargetJobTitles   []string `bson:"targetJobTitles,omitempty" json:"target_job_titles,omitempty"`
	CompanySizeMin    int      `bson:"companySizeMin" json:"company_size_min"`
	CompanySizeMax    int      `bson:"companySizeMax" json:"company_size_max"`
	Geographies       []string `bson:"geographies,omitempty" json:"geographies,omitempty"`
	Keywords          []string `bson:"keywords,omitempty" json:"keywords,omitempty"`
	ExclusionCriteria []string `bson:"exclusionCriteria,omitempty" json:"exclusion_criteria,omitempty"`
}

// Default company-size sentinel range.
const (
	DefaultCompanySizeMin = 0
	DefaultCompanySizeMax = 1000
)

// HasSizeCriterion reports whether the company-size range differs from the
// default sentinel range and therefore counts as a scoring criterion.
func (d ICPDefinition) HasSizeCriterion() bool {
	return d.CompanySizeMin != DefaultCompanySizeMin || d.CompanySizeMax != DefaultCompanySizeMax
}

// IsDefined reports whether the ICP carries any meaningful criterion. The
// default size range alone does not make an ICP defined.
func (d ICPDefinition) IsDefined() bool {
	return len(d.TargetIndustries) > 0 ||
		len(d.TargetJobTitles) > 0 ||
		len(d.Geographies) > 0 ||
		len(d.Keywords) > 0 ||
		d.HasSizeCriterion()
}

// Project represents a client engagement container. Read-only to the core;
// created and edited by external CRUD.
type Project struct {
	ID           string        `bson:"_id,omitempty" json:"id"`
	Name         string        `bson:"name" json:"name"`
	ClientName   string        `bson:"clientName,omitempty" json:"client_name,omitempty"`
	ContactEmail string        `bson:"contactEmail,omitempty" json:"contact_email,omitempty"`
	ICP          ICPDefinition `bson:"icpDefinition" json:"icp_definition"`
	CreatedAt    time.Time     `bson:"createdAt" json:"created_at"`
	UpdatedAt    time.Time     `bson:"updatedAt" json:"updated_at"`
}

// ProjectContact is the join record between a project and a databank contact.
// Exactly one link exists per (projectId, contactId) pair; duplicate inserts
// are skipped, not errored.
type ProjectContact struct {
	ID         string    `bson:"_id,omitempty" json:"id"`
	ProjectID  string    `bson:"projectId" json:"project_id"`
	ContactID  string    `bson:"contactId" json:"contact_id"`
	Stage      Stage     `bson:"stage" json:"stage"`
	Priority   Priority  `bson:"priority" json:"priority"`
	AssignedTo string    `bson:"assignedTo,omitempty" json:"assigned_to,omitempty"`
	CreatedAt  time.Time `bson:"createdAt" json:"created_at"`
	UpdatedAt  time.Time `bson:"updatedAt" json:"updated_at"`
}

// RejectedWrite reports a single row the store refused during a best-effort
// bulk write. Duplicate is true for uniqueness-constraint rejections, which
// the reconciliation engine absorbs; anything else surfaces in the report
// errors.
type RejectedWrite struct {
	Index     int
	Duplicate bool
	Message   string
}
