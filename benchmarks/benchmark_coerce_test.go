package goshape_test

import (
	"context"
	"testing"

	goshape "github.com/reoring/goshape"
	g "github.com/reoring/goshape/dsl"
)

// Micro: small object whose numeric fields arrive as strings
func coercionSchema() *goshape.Schema {
	return g.Object().
		Prop("a", g.Integer().Required()).
		Prop("b", g.Number().Required()).
		Prop("c", g.Bool().Required()).
		Schema()
}

func Benchmark_Validate_Coercion_StringScalars(b *testing.B) {
	ctx := context.Background()
	s := coercionSchema()
	value := map[string]any{"a": "42", "b": "2.5", "c": "yes"}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := goshape.Validate(ctx, s, value); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_Validate_Coercion_NativeScalars(b *testing.B) {
	ctx := context.Background()
	s := coercionSchema()
	value := map[string]any{"a": int64(42), "b": 2.5, "c": true}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := goshape.Validate(ctx, s, value); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_Validate_Format_DateTimeUUID(b *testing.B) {
	ctx := context.Background()
	s := g.Object().
		Prop("at", g.String().Format("date-time").Required()).
		Prop("id", g.String().Format("uuid").Required()).
		Schema()
	value := map[string]any{
		"at": "2024-03-01T10:00:00Z",
		"id": "8d28a3f6-4e0a-4d3b-9c6a-59d1a7e3b001",
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := goshape.Validate(ctx, s, value); err != nil {
			b.Fatal(err)
		}
	}
}

// Discriminator dispatch across three branches, resolved per element.
func discriminatedPetRegistry() *goshape.Registry {
	reg := goshape.NewRegistry()
	for _, kind := range []string{"cat", "dog", "bird"} {
		reg.Register(kind, g.Object().
			Prop("petType", g.String().Required()).
			Prop("name", g.String().Required()).
			Schema())
	}
	reg.Register("pet", g.Object().Discriminator("petType", nil).
		OneOf(g.Ref("#/cat"), g.Ref("#/dog"), g.Ref("#/bird")).
		Schema())
	return reg
}

func Benchmark_Validate_Discriminator_ThreeBranches(b *testing.B) {
	ctx := context.Background()
	reg := discriminatedPetRegistry()
	s := g.Array(g.Ref("#/pet")).Schema()
	opt := goshape.Options{Lookup: reg.Lookup}
	value := []any{
		map[string]any{"petType": "cat", "name": "mittens"},
		map[string]any{"petType": "dog", "name": "rex"},
		map[string]any{"petType": "bird", "name": "tweety"},
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := goshape.Validate(ctx, s, value, opt); err != nil {
			b.Fatal(err)
		}
	}
}

// Ref chain: every property resolves through the registry.
func Benchmark_Validate_Refs_ThroughRegistry(b *testing.B) {
	ctx := context.Background()
	reg := goshape.NewRegistry()
	reg.Register("Name", g.String().MinLen(1).Schema())
	reg.Register("Age", g.Integer().Min(0).Schema())
	s := g.Object().
		Prop("name", g.Ref("#/components/schemas/Name").Required()).
		Prop("age", g.Ref("#/components/schemas/Age").Required()).
		Schema()
	opt := goshape.Options{Lookup: reg.Lookup}
	value := map[string]any{"name": "alice", "age": int64(30)}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := goshape.Validate(ctx, s, value, opt); err != nil {
			b.Fatal(err)
		}
	}
}

// Defaults injected for required-but-missing fields on every call.
func Benchmark_Validate_Defaults_Injected(b *testing.B) {
	ctx := context.Background()
	s := g.Object().
		Prop("state", g.String().Default("pending").Required()).
		Prop("retries", g.Integer().Default(float64(3)).Required()).
		Prop("name", g.String().Required()).
		Schema()
	value := map[string]any{"name": "job-1"}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := goshape.Validate(ctx, s, value); err != nil {
			b.Fatal(err)
		}
	}
}
