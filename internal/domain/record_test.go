package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collaborative-canvas/internal/domain"
)

func TestRecord_Validate(t *testing.T) {
	valid := domain.Record{ID: "shape:1", TypeName: "shape"}
	assert.NoError(t, valid.Validate())

	missingID := domain.Record{TypeName: "shape"}
	assert.Error(t, missingID.Validate(), "缺少 id 应校验失败")

	missingType := domain.Record{ID: "shape:1"}
	assert.Error(t, missingType.Validate(), "缺少 typeName 应校验失败")
}

func TestRecord_UnmarshalJSON_PassthroughFields(t *testing.T) {
	raw := `{"id":"shape:1","typeName":"shape","x":12.5,"props":{"color":"red"}}`

	var rec domain.Record
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))

	assert.Equal(t, "shape:1", rec.ID)
	assert.Equal(t, "shape", rec.TypeName)
	assert.Equal(t, 12.5, rec.Extra["x"], "未知字段应原样透传")
	assert.Equal(t, map[string]interface{}{"color": "red"}, rec.Extra["props"])
}

func TestRecord_UnmarshalJSON_NonStringIdentity(t *testing.T) {
	// id 不是字符串时保持为空，由 Validate 统一拒绝
	raw := `{"id":42,"typeName":"shape"}`

	var rec domain.Record
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))
	assert.Error(t, rec.Validate())
}

func TestRecord_UnmarshalJSON_RejectsNonObject(t *testing.T) {
	var rec domain.Record
	assert.Error(t, json.Unmarshal([]byte(`["not","an","object"]`), &rec))
}

func TestRecord_Merge_ShallowOverwrite(t *testing.T) {
	base := domain.Record{
		ID:       "shape:1",
		TypeName: "shape",
		Extra: map[string]interface{}{
			"x":     1.0,
			"props": map[string]interface{}{"color": "red", "size": "m"},
		},
	}

	merged := base.Merge(map[string]interface{}{
		"x":     2.0,
		"props": map[string]interface{}{"color": "blue"},
	})

	assert.Equal(t, 2.0, merged.Extra["x"])
	// 浅合并：嵌套对象整体替换，不做深合并
	assert.Equal(t, map[string]interface{}{"color": "blue"}, merged.Extra["props"])
	// 原记录不受影响
	assert.Equal(t, 1.0, base.Extra["x"])
}

func TestRecord_MarshalJSON_RoundTrip(t *testing.T) {
	rec := domain.Record{
		ID:       "note:1",
		TypeName: "note",
		Extra:    map[string]interface{}{"text": "hello"},
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "note:1", decoded["id"])
	assert.Equal(t, "note", decoded["typeName"])
	assert.Equal(t, "hello", decoded["text"])
}
