package decode

import (
	"reflect"
	"time"

	"PPRealtime/tools/errs"

	"github.com/mitchellh/mapstructure"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Options 用于定制 Decode 行为。
type Options struct {
	// 是否启用宽松解码（默认 true）：
	// 例如 "123" -> int、1.0 -> int64 等。
	WeaklyTypedInput bool
}

// DefaultOptions 返回默认选项。
func DefaultOptions() Options {
	return Options{
		WeaklyTypedInput: true,
	}
}

// ParseJSON 把任意 JSON 对象解析成 *structpb.Struct（数字统一成 float64）
func ParseJSON(data []byte) (*structpb.Struct, error) {
	st := &structpb.Struct{}
	if err := protojson.Unmarshal(data, st); err != nil {
		return nil, errs.ErrArgs.WrapMsg("invalid json object", "err", err)
	}
	return st, nil
}

// DecodeStruct 将 *structpb.Struct 动态解码到任意结构体 T。
// 结构体字段读取使用 `json` tag。
func DecodeStruct[T any](st *structpb.Struct, opts ...Options) (*T, error) {
	if st == nil {
		return nil, errs.ErrArgs.WrapMsg("struct is nil")
	}
	return DecodeMap[T](st.AsMap(), opts...)
}

// DecodeMap 同 DecodeStruct，输入是已经展开的 map
func DecodeMap[T any](m map[string]any, opts ...Options) (*T, error) {
	cfg := DefaultOptions()
	if len(opts) > 0 {
		cfg = opts[0]
	}

	var out T
	decCfg := &mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &out,
		WeaklyTypedInput: cfg.WeaklyTypedInput,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
			floatToIntHook(),
			sliceAnyToSliceStringHook(),
		),
	}

	dec, err := mapstructure.NewDecoder(decCfg)
	if err != nil {
		return nil, errs.WrapMsg(err, "new decoder")
	}
	if err := dec.Decode(m); err != nil {
		return nil, errs.ErrArgs.WrapMsg("decode struct", "err", err)
	}
	return &out, nil
}

// ReadString 从 Struct 中读取 string 字段。
func ReadString(st *structpb.Struct, key string) (string, error) {
	if st == nil {
		return "", errs.ErrArgs.WrapMsg("struct is nil")
	}
	v, ok := st.GetFields()[key]
	if !ok {
		return "", errs.ErrArgs.WrapMsg("missing field", "key", key)
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", errs.ErrArgs.WrapMsg("field not string", "key", key)
	}
	return s.StringValue, nil
}

// -----------------------------
// Decode Hooks
// -----------------------------

// floatToIntHook：把 float64 自动转为 int / int32 / int64。
func floatToIntHook() mapstructure.DecodeHookFunc {
	return func(from, to reflect.Kind, data any) (any, error) {
		if from != reflect.Float64 {
			return data, nil
		}
		switch to {
		case reflect.Int:
			return int(data.(float64)), nil
		case reflect.Int32:
			return int32(data.(float64)), nil
		case reflect.Int64:
			return int64(data.(float64)), nil
		}
		return data, nil
	}
}

// sliceAnyToSliceStringHook：目标是 []string 时把 []any 里的字符串取出来，非字符串元素丢弃
func sliceAnyToSliceStringHook() mapstructure.DecodeHookFunc {
	return func(from, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.Slice || to != reflect.TypeOf([]string(nil)) {
			return data, nil
		}
		src, ok := data.([]any)
		if !ok {
			return data, nil
		}
		out := make([]string, 0, len(src))
		for _, it := range src {
			if s, ok := it.(string); ok {
				out = append(out, s)
			}
		}
		return out, nil
	}
}
