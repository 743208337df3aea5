package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = JSONSchema{
	Type:     "object",
	Required: []string{"familyId", "text"},
	Properties: map[string]Property{
		"familyId": {Type: "string", MinLength: IntPtr(1)},
		"text":     {Type: "string"},
		"scope":    {Type: "string", Enum: []string{"all", "selected"}},
		"points":   {Type: "integer", Minimum: FloatPtr(0)},
	},
}

func TestValidateInput(t *testing.T) {
	tests := []struct {
		name      string
		input     map[string]interface{}
		wantValid bool
		wantField string
	}{
		{"valid", map[string]interface{}{"familyId": "fam-1", "text": "assign dishes"}, true, ""},
		{"missing text", map[string]interface{}{"familyId": "fam-1"}, false, "(root)"},
		{"empty family", map[string]interface{}{"familyId": "", "text": "x"}, false, "familyId"},
		{"bad enum", map[string]interface{}{"familyId": "f", "text": "x", "scope": "most"}, false, "scope"},
		{"negative points", map[string]interface{}{"familyId": "f", "text": "x", "points": -1}, false, "points"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateInput(tt.input, testSchema)
			assert.Equal(t, tt.wantValid, res.Valid, res.String())
			if tt.wantField != "" {
				require.NotEmpty(t, res.Errors)
				assert.Equal(t, tt.wantField, res.Errors[0].Field)
			}
		})
	}
}

func TestDecodeInto(t *testing.T) {
	var out struct {
		FamilyID string `json:"familyId"`
		Text     string `json:"text"`
	}
	require.NoError(t, DecodeInto([]byte(`{"familyId":"fam-1","text":"hi"}`), testSchema, &out))
	assert.Equal(t, "fam-1", out.FamilyID)

	err := DecodeInto([]byte(`{"familyId":"fam-1"}`), testSchema, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "text is required")

	assert.False(t, ValidateJSON([]byte(`not json`), testSchema).Valid)
}
