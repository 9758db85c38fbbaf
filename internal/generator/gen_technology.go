package generator

import (
	"fmt"

	"github.com/emergent-company/orgtwin/internal/model"
)

var networkTypes = []string{"vpc", "vlan", "wan_link", "dmz"}
var securityZones = []string{"trusted", "dmz", "restricted", "public"}

// internetFacingAppliances names the appliance_type values whose systems are
// reachable from outside the organisation's perimeter (spec.md §4.9's
// risk-score internet_edges term).
var internetFacingAppliances = map[string]bool{"web": true, "api": true, "identity": true}

// internetFacingZones names the security_zone values a network segment can
// carry that expose it to the internet (spec.md §4.9).
var internetFacingZones = map[string]bool{"dmz": true, "public": true}

func runTechnology(ctx *GenerationContext) error {
	if err := genSystems(ctx); err != nil {
		return err
	}
	if err := genNetworks(ctx); err != nil {
		return err
	}
	return genIntegrations(ctx)
}

func genSystems(ctx *GenerationContext) error {
	count := ctx.Count(model.TypeSystem)
	entities := make([]*model.Entity, 0, count)
	for i := 0; i < count; i++ {
		tmpl := systemTemplates[i%len(systemTemplates)]
		e := model.NewEntity(model.TypeSystem, fmt.Sprintf("%s %d", tmpl.NamePrefix, i/len(systemTemplates)+1))
		e.Description = fmt.Sprintf(tmpl.DescriptionTemplate, e.Name)
		setAll(e, map[string]any{
			"criticality":     tmpl.Criticality,
			"os":              tmpl.OS,
			"tech_stack":      tmpl.TechStack,
			"hosting_type":    tmpl.HostingType,
			"appliance_type":  tmpl.ApplianceType,
			"internet_facing": internetFacingAppliances[tmpl.ApplianceType],
		})
		entities = append(entities, e)
	}
	return ctx.Commit(entities)
}

// genNetworks is derived: one network per roughly five systems, never
// fewer than three (spec.md §4.2 derived-kind list).
func genNetworks(ctx *GenerationContext) error {
	systems := ctx.Of(model.TypeSystem)
	count := len(systems)/5 + 1
	if count < 3 {
		count = 3
	}
	entities := make([]*model.Entity, 0, count)
	for i := 0; i < count; i++ {
		nType := pick(ctx.Rng, networkTypes)
		zone := pick(ctx.Rng, securityZones)
		e := model.NewEntity(model.TypeNetwork, fmt.Sprintf("%s Segment %d", titleCase(nType), i+1))
		e.Description = fmt.Sprintf("A %s network segment in the %s zone.", nType, zone)
		setAll(e, map[string]any{
			"network_type":    nType,
			"cidr":            fmt.Sprintf("10.%d.%d.0/24", i/256%256, i%256),
			"security_zone":   zone,
			"internet_facing": internetFacingZones[zone],
		})
		entities = append(entities, e)
	}
	return ctx.Commit(entities)
}

var integrationTypes = []string{"synchronous_api", "batch_etl", "message_queue", "webhook"}
var integrationProtocols = []string{"https", "grpc", "amqp", "sftp"}

func genIntegrations(ctx *GenerationContext) error {
	systems := ctx.Of(model.TypeSystem)
	if len(systems) < 2 {
		return nil
	}
	count := ctx.Count(model.TypeIntegration)
	entities := make([]*model.Entity, 0, count)
	for i := 0; i < count; i++ {
		src := systems[ctx.Rng.Intn(len(systems))]
		tgt := systems[ctx.Rng.Intn(len(systems))]
		for tgt.ID == src.ID && len(systems) > 1 {
			tgt = systems[ctx.Rng.Intn(len(systems))]
		}
		iType := pick(ctx.Rng, integrationTypes)
		e := model.NewEntity(model.TypeIntegration, fmt.Sprintf("%s → %s Integration", src.Name, tgt.Name))
		e.Description = fmt.Sprintf("A %s integration carrying data between %s and %s.", humanize(iType), src.Name, tgt.Name)
		setAll(e, map[string]any{
			"integration_type":  iType,
			"protocol":          pick(ctx.Rng, integrationProtocols),
			"source_system_id":  src.ID,
			"target_system_id":  tgt.ID,
		})
		entities = append(entities, e)
	}
	return ctx.Commit(entities)
}
