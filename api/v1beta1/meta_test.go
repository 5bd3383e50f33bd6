package v1beta1_test

import (
	"testing"

	"github.com/invopop/jsonschema"
	"github.com/stretchr/testify/assert"

	"github.com/macropower/charon/api/v1beta1"
)

func TestTypeMeta(t *testing.T) {
	t.Parallel()

	tm := v1beta1.TypeMeta{
		APIVersion: v1beta1.APIVersion,
		Kind:       "RuleSet",
	}

	assert.Equal(t, "charon.jacobcolvin.com/v1beta1", tm.GetAPIVersion())
	assert.Equal(t, "RuleSet", tm.GetKind())
}

func TestExtendSchemaWithEnums(t *testing.T) {
	t.Parallel()

	newSchema := func() *jsonschema.Schema {
		r := &jsonschema.Reflector{DoNotReference: true}

		return r.Reflect(&v1beta1.TypeMeta{})
	}

	tcs := map[string]struct {
		apiVersions []string
		kinds       []string
	}{
		"single values": {
			apiVersions: []string{v1beta1.APIVersion},
			kinds:       []string{"Configuration"},
		},
		"multiple values": {
			apiVersions: []string{"v1", "v1beta1"},
			kinds:       []string{"Configuration", "RuleSet"},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			jss := newSchema()
			v1beta1.ExtendSchemaWithEnums(jss, tc.apiVersions, tc.kinds)

			apiVersion, ok := jss.Properties.Get("apiVersion")
			assert.True(t, ok)
			assert.Len(t, apiVersion.Enum, len(tc.apiVersions))

			kind, ok := jss.Properties.Get("kind")
			assert.True(t, ok)
			assert.Len(t, kind.Enum, len(tc.kinds))
		})
	}
}

func TestExtendSchemaWithEnums_MissingProperty(t *testing.T) {
	t.Parallel()

	jss := &jsonschema.Schema{Properties: jsonschema.NewProperties()}

	assert.Panics(t, func() {
		v1beta1.ExtendSchemaWithEnums(jss, []string{"v1"}, []string{"Kind"})
	})
}
