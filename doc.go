package goshape

// Package goshape validates and coerces loosely-typed runtime values against
// canonical constraint trees: a restricted OpenAPI 3.0 style schema model.
//
// It provides:
//
// - A canonical Schema node (types, formats, bounds, properties, allOf/oneOf,
//   discriminator, $ref) built in code, from JSON/YAML documents, or from raw maps
// - Validate/ValidateJSON/IsValid, returning a coerced copy of the input or a
//   ValidationError carrying every field error found in one pass
// - Lazy $ref resolution through a RefLookup with distinct not-found, lookup
//   and cycle failures; a Registry that doubles as a RefLookup
// - allOf folding, discriminator dispatch and merge/add tree composition
// - Path- and format-scoped extension filters and validators
//
// Design policy:
// - Keep only public APIs in the root package; put intake helpers under internal/.
// - Place the builder DSL under dsl/, cross-field rules under rule/, the HTTP
//   layer under middleware/, and the CLI under cmd/goshape.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//  s := dsl.Object().
//      Prop("name", dsl.String().Required().Min(1)).
//      Prop("age", dsl.Integer().Min(0)).
//      Schema()
//  out, err := goshape.Validate(ctx, s, input)
//
//  reg := goshape.NewRegistry()
//  reg.Register("Cat", catSchema)
//  out, err = goshape.Validate(ctx, pet, input, goshape.Options{Lookup: reg.Lookup})
