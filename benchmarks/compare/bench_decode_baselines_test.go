package compare_test

import (
	"encoding/json"
	"testing"

	sonic "github.com/bytedance/sonic"
	gojson "github.com/goccy/go-json"
	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fastjson"
)

// Decode-only baselines: the floor under any validate-from-bytes number.

func Benchmark_Decode_encodingJSON_HugeArray(b *testing.B) {
	data := generateHugeJSONArray(hugeObjects, hugeExtraKeys)
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var v []map[string]any
		if err := json.Unmarshal(data, &v); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_Decode_gojson_HugeArray(b *testing.B) {
	data := generateHugeJSONArray(hugeObjects, hugeExtraKeys)
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var v []map[string]any
		if err := gojson.Unmarshal(data, &v); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_Decode_sonic_HugeArray(b *testing.B) {
	data := generateHugeJSONArray(hugeObjects, hugeExtraKeys)
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var v []map[string]any
		if err := sonic.Unmarshal(data, &v); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_Decode_jsoniter_HugeArray(b *testing.B) {
	data := generateHugeJSONArray(hugeObjects, hugeExtraKeys)
	api := jsoniter.ConfigCompatibleWithStandardLibrary
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var v []map[string]any
		if err := api.Unmarshal(data, &v); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_Decode_fastjson_HugeArray(b *testing.B) {
	data := generateHugeJSONArray(hugeObjects, hugeExtraKeys)
	var p fastjson.Parser
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := p.ParseBytes(data); err != nil {
			b.Fatal(err)
		}
	}
}
