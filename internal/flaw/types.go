package flaw

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/d10n/osidb/internal/workflow"
)

// Impact represents the aggregate impact of a flaw
type Impact string

const (
	ImpactNone      Impact = ""
	ImpactLow       Impact = "LOW"
	ImpactModerate  Impact = "MODERATE"
	ImpactImportant Impact = "IMPORTANT"
	ImpactCritical  Impact = "CRITICAL"
)

// FlawType distinguishes vulnerabilities from weaknesses
type FlawType string

const (
	TypeVulnerability FlawType = "VULNERABILITY"
	TypeWeakness      FlawType = "WEAKNESS"
)

// Affect records that a flaw affects one component of one product stream
type Affect struct {
	PSModule     string `json:"ps_module"`
	PSComponent  string `json:"ps_component"`
	Affectedness string `json:"affectedness,omitempty"`
	Resolution   string `json:"resolution,omitempty"`
	Impact       Impact `json:"impact,omitempty"`
}

// FlawCVSS is a CVSS score attached to a flaw by a specific issuer
type FlawCVSS struct {
	Issuer  string  `json:"issuer"`
	Version string  `json:"version"`
	Vector  string  `json:"vector"`
	Score   float64 `json:"score"`
}

// CVSS issuers and versions recorded in the cvss_scores relation
const (
	CVSSIssuerRedHat = "RH"
	CVSSIssuerNIST   = "NIST"

	CVSSVersion2 = "V2"
	CVSSVersion3 = "V3"
)

// Package lists the versions of a package a flaw applies to
type Package struct {
	Package  string   `json:"package"`
	Versions []string `json:"versions"`
}

// Classification is the (workflow, state) pair a flaw is filed under
type Classification struct {
	Workflow string `json:"workflow"`
	State    string `json:"state"`
}

// Flaw is a tracked vulnerability record. Attribute names visible to the
// workflow engine follow the column names of the flaws table.
type Flaw struct {
	UUID        uuid.UUID
	Type        FlawType
	CVEID       string
	CWEID       string
	Impact      Impact
	Component   string
	Title       string
	Description string
	Summary     string
	Statement   string
	Mitigation  string
	Source      string

	CVSS2      string
	CVSS2Score float64
	CVSS3      string
	CVSS3Score float64
	NvdCVSS2   string
	NvdCVSS3   string

	IsMajorIncident bool
	Embargoed       bool

	Affects         []Affect
	CVSSScores      []FlawCVSS
	PackageVersions []Package

	// stored classification, reconciled against the computed one
	WorkflowName string
	StateName    string

	CreatedDt   time.Time
	UpdatedDt   time.Time
	ReportedDt  time.Time
	UnembargoDt time.Time
}

// NewFlaw creates a flaw with a fresh UUID and timestamps, classified into
// the entry state of the applicable workflow.
func NewFlaw(ctx context.Context, framework *workflow.Framework) (*Flaw, error) {
	now := time.Now().UTC()
	f := &Flaw{
		UUID:      uuid.New(),
		Type:      TypeVulnerability,
		CreatedDt: now,
		UpdatedDt: now,
	}
	if err := f.InitClassification(ctx, framework); err != nil {
		return nil, err
	}
	return f, nil
}

// Scalar implements workflow.Record. Time-valued properties render as
// RFC 3339 strings, empty when unset.
func (f *Flaw) Scalar(name string) (string, bool) {
	switch name {
	case "uuid":
		if f.UUID == uuid.Nil {
			return "", true
		}
		return f.UUID.String(), true
	case "cve_id":
		return f.CVEID, true
	case "cwe_id":
		return f.CWEID, true
	case "type":
		return string(f.Type), true
	case "impact":
		return string(f.Impact), true
	case "component":
		return f.Component, true
	case "title":
		return f.Title, true
	case "description":
		return f.Description, true
	case "summary":
		return f.Summary, true
	case "statement":
		return f.Statement, true
	case "mitigation":
		return f.Mitigation, true
	case "source":
		return f.Source, true
	case "cvss2":
		return f.CVSS2, true
	case "cvss3":
		return f.CVSS3, true
	case "nvd_cvss2":
		return f.NvdCVSS2, true
	case "nvd_cvss3":
		return f.NvdCVSS3, true
	case "created_dt":
		return timeScalar(f.CreatedDt), true
	case "updated_dt":
		return timeScalar(f.UpdatedDt), true
	case "reported_dt":
		return timeScalar(f.ReportedDt), true
	case "unembargo_dt":
		return timeScalar(f.UnembargoDt), true
	default:
		return "", false
	}
}

// RelationSize implements workflow.Record
func (f *Flaw) RelationSize(name string) (int, bool) {
	switch name {
	case "affects":
		return len(f.Affects), true
	case "cvss_scores":
		return len(f.CVSSScores), true
	case "package_versions":
		return len(f.PackageVersions), true
	default:
		return 0, false
	}
}

// Bool implements workflow.Record
func (f *Flaw) Bool(name string) (bool, bool) {
	switch name {
	case "is_major_incident":
		return f.IsMajorIncident, true
	case "embargoed":
		return f.Embargoed, true
	default:
		return false, false
	}
}

// SetCVSSScore inserts or updates the cvss_scores entry keyed by issuer and
// version, reporting whether the relation changed. One entry exists per
// (issuer, version) pair.
func (f *Flaw) SetCVSSScore(issuer, version, vector string, score float64) bool {
	for i, c := range f.CVSSScores {
		if c.Issuer == issuer && c.Version == version {
			if c.Vector == vector && c.Score == score {
				return false
			}
			f.CVSSScores[i].Vector = vector
			f.CVSSScores[i].Score = score
			return true
		}
	}
	f.CVSSScores = append(f.CVSSScores, FlawCVSS{
		Issuer:  issuer,
		Version: version,
		Vector:  vector,
		Score:   score,
	})
	return true
}

// Classification returns the stored classification
func (f *Flaw) Classification() Classification {
	return Classification{Workflow: f.WorkflowName, State: f.StateName}
}

// SetClassification overwrites the stored classification without any
// recomputation.
func (f *Flaw) SetClassification(c Classification) {
	f.WorkflowName = c.Workflow
	f.StateName = c.State
}

// Classify computes the classification the flaw's current attributes map to.
// It never touches the stored pair.
func (f *Flaw) Classify(ctx context.Context, framework *workflow.Framework) (Classification, error) {
	selected, state, err := framework.Classify(ctx, f)
	if err != nil {
		return Classification{}, err
	}
	return Classification{Workflow: selected.Name, State: state.Name}, nil
}

// InitClassification stores the computed classification, discarding whatever
// was stored before.
func (f *Flaw) InitClassification(ctx context.Context, framework *workflow.Framework) error {
	computed, err := f.Classify(ctx, framework)
	if err != nil {
		return err
	}
	f.SetClassification(computed)
	return nil
}

// AdjustClassification reconciles the stored classification with the
// computed one. The stored pair is rewritten only when the two diverge, so
// repeated calls with unchanged attributes are no-ops. It reports whether
// the stored classification changed.
func (f *Flaw) AdjustClassification(ctx context.Context, framework *workflow.Framework) (bool, error) {
	computed, err := f.Classify(ctx, framework)
	if err != nil {
		return false, err
	}
	if computed == f.Classification() {
		return false, nil
	}
	f.SetClassification(computed)
	f.UpdatedDt = time.Now().UTC()
	return true, nil
}

func timeScalar(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// Flaw satisfies the record contract of the workflow engine
var _ workflow.Record = (*Flaw)(nil)
