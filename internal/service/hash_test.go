package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyntheticHashIgnoresKeyOrderAndNumberSpelling(t *testing.T) {
	a, err := syntheticHash("2024-03-10", "Bing", "r1", []byte(`{"clicks":2,"cost":5.50,"campaign":{"id":"7","name":"x"}}`))
	require.NoError(t, err)
	b, err := syntheticHash("2024-03-10", "Bing", "r1", []byte(`{"campaign":{"name":"x","id":"7"},"cost":5.5,"clicks":2.0}`))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := syntheticHash("2024-03-11", "Bing", "r1", []byte(`{"clicks":2,"cost":5.5,"campaign":{"id":"7","name":"x"}}`))
	require.NoError(t, err)
	assert.NotEqual(t, a, c)

	d, err := syntheticHash("2024-03-10", "AdWords", "r1", []byte(`{"clicks":2,"cost":5.5,"campaign":{"id":"7","name":"x"}}`))
	require.NoError(t, err)
	assert.NotEqual(t, a, d)
}

func TestSyntheticHashSeparatesRowsWithEqualPayload(t *testing.T) {
	a, err := syntheticHash("2024-03-10", "Criteo", "r1", nil)
	require.NoError(t, err)
	b, err := syntheticHash("2024-03-10", "Criteo", "r2", nil)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	c, err := syntheticHash("2024-03-10", "Criteo", "r1", []byte(`{"cost":1}`))
	require.NoError(t, err)
	e, err := syntheticHash("2024-03-10", "Criteo", "r2", []byte(`{"cost":1}`))
	require.NoError(t, err)
	assert.NotEqual(t, c, e)
}

func TestCanonicalJSON(t *testing.T) {
	out, err := canonicalJSON([]byte(`{"b":[1e2, true, null, "s"],"a":0.10}`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":0.1,"b":[100,true,null,"s"]}`, string(out))

	out, err = canonicalJSON(nil)
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))

	_, err = canonicalJSON([]byte(`{"a":`))
	assert.Error(t, err)
}

func TestVisitHash(t *testing.T) {
	assert.Equal(t, "visit-42", visitHash(42))
}
