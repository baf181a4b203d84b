// Package entities defines the GORM entity models of the sample inventory.
//
// # Lookup Entities
//
//   - Provider, Target, SampleType: protected references, a sample cannot exist without them
//   - Extractor, Cycler: optional references, nulled when the lookup row is deleted
//   - PCRKit: test kits, split by kind (mikrogen or external)
//
// # Inventory Entities
//
//   - StoragePlace: self-referential room > freezer > drawer > box tree
//   - Sample: the PCR sample with its lifecycle flags and volumes
//   - UsageLog: one checkout/return record per holding period, owned by its sample
//   - User: sample holders, created on first use
package entities
