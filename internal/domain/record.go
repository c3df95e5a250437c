package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Record 表示文档中的一条开放结构记录。
// 除必需的 id 和 typeName 外，其余字段原样透传，本服务不做任何解释。
type Record struct {
	ID       string
	TypeName string
	// Extra 保存除 id/typeName 以外的所有字段（开放 schema）。
	Extra map[string]interface{}
}

// Validate 检查记录是否满足最低结构要求：
// id 和 typeName 必须是非空字符串，其余字段不做校验。
func (r Record) Validate() error {
	if r.ID == "" {
		return errors.New(`record field "id" must be a non-empty string`)
	}
	if r.TypeName == "" {
		return errors.New(`record field "typeName" must be a non-empty string`)
	}
	return nil
}

// RecordFromMap 从通用 map 构造 Record。
// id/typeName 不是字符串时保持为空，由 Validate 统一拒绝。
func RecordFromMap(m map[string]interface{}) Record {
	rec := Record{Extra: make(map[string]interface{})}
	for k, v := range m {
		switch k {
		case "id":
			if s, ok := v.(string); ok {
				rec.ID = s
			}
		case "typeName":
			if s, ok := v.(string); ok {
				rec.TypeName = s
			}
		default:
			rec.Extra[k] = v
		}
	}
	return rec
}

// AsMap 将记录还原为通用 map 表示。
func (r Record) AsMap() map[string]interface{} {
	m := make(map[string]interface{}, len(r.Extra)+2)
	for k, v := range r.Extra {
		m[k] = v
	}
	if r.ID != "" {
		m["id"] = r.ID
	}
	if r.TypeName != "" {
		m["typeName"] = r.TypeName
	}
	return m
}

// Merge 将 after 中的字段浅合并到记录上，返回合并结果，原记录不变。
// after 中的 id/typeName 同样会覆盖原值。
func (r Record) Merge(after map[string]interface{}) Record {
	m := r.AsMap()
	for k, v := range after {
		m[k] = v
	}
	return RecordFromMap(m)
}

func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.AsMap())
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("record must be a JSON object: %w", err)
	}
	*r = RecordFromMap(m)
	return nil
}
