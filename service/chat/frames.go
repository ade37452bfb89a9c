package chat

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Frame 线上帧：{"event": "...", "data": ...}，无负载时省略 data
type Frame struct {
	Event string              `json:"event"`
	Data  jsoniter.RawMessage `json:"data,omitempty"`
}

// EncodeFrame payload 为 nil 时不带 data 字段
func EncodeFrame(event string, payload any) ([]byte, error) {
	if event == "" {
		return nil, fmt.Errorf("EncodeFrame: event is empty")
	}
	f := Frame{Event: event}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("EncodeFrame: marshal %s payload: %w", event, err)
		}
		f.Data = raw
	}
	return json.Marshal(&f)
}

// DecodeFrame 从 []byte 解析回 Frame
func DecodeFrame(data []byte) (*Frame, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("DecodeFrame: data is empty")
	}
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if f.Event == "" {
		return nil, fmt.Errorf("DecodeFrame: missing event")
	}
	return &f, nil
}

// Bind 把 data 解到 v 上
func (f *Frame) Bind(v any) error {
	if len(f.Data) == 0 {
		return fmt.Errorf("event %s: empty data", f.Event)
	}
	return json.Unmarshal(f.Data, v)
}
