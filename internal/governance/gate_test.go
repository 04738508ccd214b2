package governance

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zero-day-ai/memrouter/internal/types"
)

func newDefaultGate(t *testing.T) *Gate {
	t.Helper()
	g, err := NewGate(DefaultConfig())
	require.NoError(t, err)
	return g
}

// payloadOfSize returns a payload whose canonical encoding is exactly n bytes.
func payloadOfSize(t *testing.T, n int) Payload {
	t.Helper()
	const overhead = len(`{"data":""}`)
	require.GreaterOrEqual(t, n, overhead)
	p := Payload{"data": strings.Repeat("x", n-overhead)}

	canonical, err := Canonicalize(p)
	require.NoError(t, err)
	require.Len(t, canonical, n)
	return p
}

func TestGate_ForbiddenKeysAlwaysRejected(t *testing.T) {
	g := newDefaultGate(t)

	tests := []struct {
		name    string
		payload Payload
	}{
		{"api_key alone", Payload{"api_key": "x"}},
		{"api_key with others", Payload{"title": "note", "api_key": "x", "count": 3}},
		{"mixed case", Payload{"DB_Password": "hunter2"}},
		{"substring", Payload{"github_token_v2": "abc"}},
		{"auth prefix", Payload{"authorization": "Bearer abc"}},
		{"nested object", Payload{"meta": map[string]any{"client_secret": "s"}}},
		{"object inside array", Payload{"items": []any{map[string]any{"note": 1}, map[string]any{"private_key": "k"}}}},
		{"typed nested map", Payload{"env": map[string]string{"AWS_CREDENTIALS": "c"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := g.Validate(tt.payload)
			assert.False(t, res.Allowed)
			assert.Equal(t, "forbidden-key", res.Rule)
			assert.NotEmpty(t, res.Reason)
		})
	}
}

func TestGate_ForbiddenKeyReasonIsStable(t *testing.T) {
	g := newDefaultGate(t)

	tests := []struct {
		name    string
		payload Payload
		want    string
	}{
		{
			"several top-level keys",
			Payload{"z_token": 1, "m_secret": 2, "b_password": 3, "note": "x"},
			`key "b_password" contains forbidden term "password"`,
		},
		{
			"nested before later sibling",
			Payload{"a": map[string]any{"y_auth": 1, "x_token": 2}, "b_secret": 3},
			`key "a.x_token" contains forbidden term "token"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 50; i++ {
				res := g.Validate(tt.payload)
				require.False(t, res.Allowed)
				require.Equal(t, tt.want, res.Reason)
			}
		})
	}
}

func TestGate_ForbiddenKeyWinsOverSize(t *testing.T) {
	g := newDefaultGate(t)
	p := payloadOfSize(t, DefaultMaxPayloadBytes+100)
	p["secret"] = "s"

	res := g.Validate(p)
	assert.False(t, res.Allowed)
	assert.Equal(t, "forbidden-key", res.Rule)
}

func TestGate_ValuesAreNotScanned(t *testing.T) {
	g := newDefaultGate(t)
	res := g.Validate(Payload{"note": "remember to rotate the password"})
	assert.True(t, res.Allowed)
}

func TestGate_SizeBoundary(t *testing.T) {
	g := newDefaultGate(t)

	atLimit := g.Validate(payloadOfSize(t, DefaultMaxPayloadBytes))
	assert.True(t, atLimit.Allowed, atLimit.Reason)

	over := g.Validate(payloadOfSize(t, DefaultMaxPayloadBytes+1))
	assert.False(t, over.Allowed)
	assert.Equal(t, "size", over.Rule)
	assert.Contains(t, over.Reason, "25001")
}

func TestGate_CustomLimit(t *testing.T) {
	g, err := NewGate(Config{MaxPayloadBytes: 20})
	require.NoError(t, err)

	assert.True(t, g.Validate(payloadOfSize(t, 20)).Allowed)
	assert.False(t, g.Validate(payloadOfSize(t, 21)).Allowed)
}

func TestGate_NotSerializable(t *testing.T) {
	g := newDefaultGate(t)

	tests := []struct {
		name    string
		payload Payload
	}{
		{"channel", Payload{"c": make(chan int)}},
		{"function", Payload{"f": func() {}}},
		{"NaN", Payload{"n": math.NaN()}},
		{"infinity", Payload{"n": math.Inf(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := g.Validate(tt.payload)
			assert.False(t, res.Allowed)
			assert.Equal(t, "serializable", res.Rule)
			assert.Equal(t, ErrCodeNotSerializable, res.Code)
			assert.Equal(t, ErrCodeNotSerializable, types.CodeOf(res.Err()))
		})
	}
}

func TestGate_DoesNotMutatePayload(t *testing.T) {
	g := newDefaultGate(t)
	p := Payload{"a": 1, "b": []any{"x"}}
	res := g.Validate(p)

	require.True(t, res.Allowed)
	assert.Equal(t, Payload{"a": 1, "b": []any{"x"}}, p)
}

func TestValidationResult_Err(t *testing.T) {
	assert.NoError(t, ValidationResult{Allowed: true}.Err())

	err := ValidationResult{Rule: "size", Reason: "too big"}.Err()
	require.Error(t, err)
	assert.Equal(t, ErrCodeGovernanceRejected, types.CodeOf(err))
	assert.Contains(t, err.Error(), "size: too big")

	err = ValidationResult{Rule: "serializable", Reason: "bad", Code: ErrCodeNotSerializable}.Err()
	assert.Equal(t, ErrCodeNotSerializable, types.CodeOf(err))

	res := newDefaultGate(t).Validate(Payload{"api_key": "x"})
	assert.Equal(t, ErrCodeGovernanceRejected, res.Code)
}

func TestNewGate_InvalidConfig(t *testing.T) {
	_, err := NewGate(Config{MaxPayloadBytes: -1})
	require.Error(t, err)
	assert.Equal(t, ErrCodeInvalidConfig, types.CodeOf(err))

	_, err = NewGate(Config{ForbiddenTerms: []string{"ok", " "}})
	require.Error(t, err)
}

func TestGate_RulesOrder(t *testing.T) {
	g := newDefaultGate(t)
	var names []string
	for _, r := range g.Rules() {
		names = append(names, r.Name())
	}
	assert.Equal(t, []string{"forbidden-key", "size", "serializable"}, names)
}
