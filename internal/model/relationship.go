package model

import (
	"time"

	"github.com/google/uuid"
)

// RelationshipType is the closed discriminant of the relationship
// tagged-variant set (spec.md §3.3).
type RelationshipType string

// Relationship is an edge in the multigraph. Two relationships may share
// the same (SourceID, TargetID, Type) triple — it is a multigraph.
type Relationship struct {
	ID         string            `json:"id"`
	Type       RelationshipType  `json:"relationship_type"`
	SourceID   string            `json:"source_id"`
	TargetID   string            `json:"target_id"`
	Weight     float64           `json:"weight"`
	Confidence float64           `json:"confidence"`
	Properties map[string]string `json:"properties,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// NewRelationship constructs a relationship with a fresh id and timestamps.
// Weight and confidence are clamped and rounded per spec.md §3.4 invariant 4.
func NewRelationship(typ RelationshipType, sourceID, targetID string, weight, confidence float64, props map[string]string) *Relationship {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &Relationship{
		ID:         uuid.NewString(),
		Type:       typ,
		SourceID:   sourceID,
		TargetID:   targetID,
		Weight:     ClampRound(weight),
		Confidence: ClampRound(confidence),
		Properties: props,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// ClampRound clamps v to [0, 1] and rounds to two decimals, per the
// metadata-clamping invariant (spec.md §3.4 invariant 4).
func ClampRound(v float64) float64 {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return float64(int(v*100+0.5)) / 100
}

// relSchema declares the allowed source-kind and target-kind sets for one
// relationship type — the static compile-time table shared by the weaver,
// the write-path validator, and import validation (spec.md §9 re-architecture
// of "declarative relationship-schema table looked up by string names").
type relSchema struct {
	Source []EntityType
	Target []EntityType
}

func kinds(k ...EntityType) []EntityType { return k }

// Relationship catalog. ~52 kinds; domain × range pairs follow the examples
// in spec.md §3.3 and are extended to cover every entity kind reachable
// from the generation layers.
const (
	RelWorksIn            RelationshipType = "works_in"
	RelManages            RelationshipType = "manages"
	RelHoldsRole          RelationshipType = "holds_role"
	RelLocatedAt          RelationshipType = "located_at"
	RelDependsOn          RelationshipType = "depends_on"
	RelIntegratesWith     RelationshipType = "integrates_with"
	RelStores             RelationshipType = "stores"
	RelHostedAt           RelationshipType = "hosted_at"
	RelGoverns            RelationshipType = "governs"
	RelImplements         RelationshipType = "implements"
	RelMitigates          RelationshipType = "mitigates"
	RelSubjectTo          RelationshipType = "subject_to"
	RelFlowsTo            RelationshipType = "flows_to"
	RelImpacts            RelationshipType = "impacts"
	RelAffects            RelationshipType = "affects"
	RelExploits           RelationshipType = "exploits"
	RelAttributedTo       RelationshipType = "attributed_to"
	RelTargets            RelationshipType = "targets"
	RelOwns               RelationshipType = "owns"
	RelBelongsTo          RelationshipType = "belongs_to"
	RelLocatedIn          RelationshipType = "located_in"
	RelSiteIn             RelationshipType = "site_in"
	RelPartOfGeography    RelationshipType = "part_of_geography"
	RelUnderJurisdiction  RelationshipType = "under_jurisdiction"
	RelRegulatedBy        RelationshipType = "regulated_by"
	RelMonitors           RelationshipType = "monitors"
	RelAuthenticates      RelationshipType = "authenticates"
	RelBuildsOn           RelationshipType = "builds_on"
	RelProvidesDataTo     RelationshipType = "provides_data_to"
	RelConsumesDataFrom   RelationshipType = "consumes_data_from"
	RelClassifiedIn       RelationshipType = "classified_in"
	RelEnables            RelationshipType = "enables"
	RelSupportsCapability RelationshipType = "supports_capability"
	RelOffers             RelationshipType = "offers"
	RelServesSegment      RelationshipType = "serves_segment"
	RelPurchases          RelationshipType = "purchases"
	RelSegmentedIn        RelationshipType = "segmented_in"
	RelSupplies           RelationshipType = "supplies"
	RelContractedUnder    RelationshipType = "contracted_under"
	RelSponsors           RelationshipType = "sponsors"
	RelDelivers           RelationshipType = "delivers"
	RelRemediates         RelationshipType = "remediates"
	RelEscalatesTo        RelationshipType = "escalates_to"
	RelReportsTo          RelationshipType = "reports_to"
	RelSucceeds           RelationshipType = "succeeds"
	RelHasRole            RelationshipType = "has_role"
	RelApproves           RelationshipType = "approves"
	RelAudits             RelationshipType = "audits"
	RelCertifies          RelationshipType = "certifies"
	RelThreatens          RelationshipType = "threatens"
	RelVulnerableTo       RelationshipType = "vulnerable_to"
	RelProcesses          RelationshipType = "processes"
)

var relationshipCatalog = map[RelationshipType]relSchema{
	RelWorksIn:        {kinds(TypePerson), kinds(TypeDepartment)},
	RelManages:        {kinds(TypePerson), kinds(TypePerson, TypeDepartment)},
	RelHoldsRole:      {kinds(TypePerson), kinds(TypeRole)},
	RelLocatedAt:      {kinds(TypePerson), kinds(TypeLocation)},
	RelDependsOn:      {kinds(TypeSystem), kinds(TypeSystem)},
	RelIntegratesWith: {kinds(TypeSystem), kinds(TypeSystem)},
	RelStores:         {kinds(TypeSystem), kinds(TypeDataAsset)},
	RelHostedAt:       {kinds(TypeSystem), kinds(TypeSite)},
	RelGoverns:        {kinds(TypePolicy), kinds(TypeSystem, TypeDataAsset, TypeDepartment)},
	RelImplements:     {kinds(TypeControl), kinds(TypeRegulation, TypePolicy)},
	RelMitigates:      {kinds(TypeControl), kinds(TypeRisk, TypeVulnerability, TypeThreat)},
	RelSubjectTo:      {kinds(TypeSystem, TypeVendor, TypeDataAsset, TypeProduct), kinds(TypeRegulation, TypeJurisdiction)},
	RelFlowsTo:        {kinds(TypeDataFlow, TypeDataAsset), kinds(TypeSystem, TypeDataAsset)},
	RelImpacts:        {kinds(TypeInitiative), kinds(TypeSystem, TypeProduct, TypeBusinessCapability, TypeRisk)},
	RelAffects:        {kinds(TypeVulnerability), kinds(TypeSystem)},
	RelExploits:       {kinds(TypeThreatActor), kinds(TypeVulnerability)},
	RelAttributedTo:   {kinds(TypeIncident), kinds(TypeThreatActor)},
	RelTargets:        {kinds(TypeThreat), kinds(TypeSystem, TypeDataAsset)},
	RelOwns:           {kinds(TypeDepartment), kinds(TypeSystem, TypeDataAsset, TypeBusinessCapability, TypeProduct)},
	RelBelongsTo:      {kinds(TypeDepartment), kinds(TypeOrganizationalUnit)},
	RelLocatedIn:      {kinds(TypeDepartment), kinds(TypeSite)},
	RelSiteIn:         {kinds(TypeSite), kinds(TypeLocation)},
	RelPartOfGeography: {kinds(TypeSite), kinds(TypeGeography)},
	RelUnderJurisdiction: {kinds(TypeSite), kinds(TypeJurisdiction)},
	RelRegulatedBy:    {kinds(TypeJurisdiction), kinds(TypeRegulation)},
	RelMonitors:       {kinds(TypeSystem), kinds(TypeSystem)},
	RelAuthenticates:  {kinds(TypeSystem), kinds(TypeSystem)},
	RelBuildsOn:       {kinds(TypeSystem), kinds(TypeSystem)},
	RelProvidesDataTo: {kinds(TypeIntegration), kinds(TypeSystem)},
	RelConsumesDataFrom: {kinds(TypeIntegration), kinds(TypeSystem)},
	RelClassifiedIn:   {kinds(TypeDataAsset), kinds(TypeDataDomain)},
	RelEnables:        {kinds(TypeBusinessCapability), kinds(TypeBusinessCapability)},
	RelSupportsCapability: {kinds(TypeSystem), kinds(TypeBusinessCapability)},
	RelOffers:         {kinds(TypeProductPortfolio), kinds(TypeProduct)},
	RelServesSegment:  {kinds(TypeProduct), kinds(TypeMarketSegment)},
	RelPurchases:      {kinds(TypeCustomer), kinds(TypeProduct)},
	RelSegmentedIn:    {kinds(TypeCustomer), kinds(TypeMarketSegment)},
	RelSupplies:       {kinds(TypeVendor), kinds(TypeSystem, TypeDataAsset)},
	RelContractedUnder: {kinds(TypeVendor), kinds(TypeContract)},
	RelSponsors:       {kinds(TypeDepartment), kinds(TypeInitiative)},
	RelDelivers:       {kinds(TypeInitiative), kinds(TypeBusinessCapability, TypeProduct)},
	RelRemediates:     {kinds(TypeIncident), kinds(TypeVulnerability)},
	RelEscalatesTo:    {kinds(TypeIncident), kinds(TypeDepartment)},
	RelReportsTo:      {kinds(TypeRole), kinds(TypeRole)},
	RelSucceeds:       {kinds(TypeContract), kinds(TypeContract)},
	RelHasRole:        {kinds(TypeDepartment), kinds(TypeRole)},
	RelApproves:       {kinds(TypeRole), kinds(TypePolicy)},
	RelAudits:         {kinds(TypeControl), kinds(TypeDepartment)},
	RelCertifies:      {kinds(TypeRegulation), kinds(TypeControl)},
	RelThreatens:      {kinds(TypeThreatActor), kinds(TypeSystem, TypeDataAsset)},
	RelVulnerableTo:   {kinds(TypeSystem), kinds(TypeVulnerability)},
	RelProcesses:      {kinds(TypeSystem), kinds(TypeDataAsset)},
}

// AllRelationshipTypes lists the closed set in declaration order.
func AllRelationshipTypes() []RelationshipType {
	out := make([]RelationshipType, 0, len(relationshipCatalog))
	for _, t := range relOrder {
		out = append(out, t)
	}
	return out
}

var relOrder = []RelationshipType{
	RelWorksIn, RelManages, RelHoldsRole, RelLocatedAt, RelDependsOn, RelIntegratesWith,
	RelStores, RelHostedAt, RelGoverns, RelImplements, RelMitigates, RelSubjectTo,
	RelFlowsTo, RelImpacts, RelAffects, RelExploits, RelAttributedTo, RelTargets,
	RelOwns, RelBelongsTo, RelLocatedIn, RelSiteIn, RelPartOfGeography, RelUnderJurisdiction,
	RelRegulatedBy, RelMonitors, RelAuthenticates, RelBuildsOn, RelProvidesDataTo,
	RelConsumesDataFrom, RelClassifiedIn, RelEnables, RelSupportsCapability, RelOffers,
	RelServesSegment, RelPurchases, RelSegmentedIn, RelSupplies, RelContractedUnder,
	RelSponsors, RelDelivers, RelRemediates, RelEscalatesTo, RelReportsTo, RelSucceeds,
	RelHasRole, RelApproves, RelAudits, RelCertifies, RelThreatens, RelVulnerableTo, RelProcesses,
}

// IsValidRelationshipType reports whether t is in the closed catalog.
func IsValidRelationshipType(t RelationshipType) bool {
	_, ok := relationshipCatalog[t]
	return ok
}

// DomainRangeOK reports whether sourceKind/targetKind satisfy the declared
// domain and range for relationship type t.
func DomainRangeOK(t RelationshipType, sourceKind, targetKind EntityType) bool {
	schema, ok := relationshipCatalog[t]
	if !ok {
		return false
	}
	return containsKind(schema.Source, sourceKind) && containsKind(schema.Target, targetKind)
}

func containsKind(set []EntityType, k EntityType) bool {
	for _, kind := range set {
		if kind == k {
			return true
		}
	}
	return false
}
