package legacy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoveInternalFields(t *testing.T) {
	in := map[string]any{
		"_id": "x",
		"__v": 0.0,
		"nested": map[string]any{
			"_id":  "y",
			"keep": 1.0,
		},
		"list": []any{
			map[string]any{"_id": "z", "name": "a"},
			"plain",
		},
	}

	out := RemoveInternalFields(in)

	assert.Equal(t, map[string]any{
		"nested": map[string]any{"keep": 1.0},
		"list": []any{
			map[string]any{"name": "a"},
			"plain",
		},
	}, out)
	assert.Contains(t, in, "_id", "input is left untouched")
}

func TestRemoveInternalFields_Scalars(t *testing.T) {
	assert.Equal(t, "s", RemoveInternalFields("s"))
	assert.Nil(t, RemoveInternalFields(nil))
}

const exported = `{"_id":"1","__v":0,"clerkId":"user_1","username":"jane","is_private":true,"template":1,` +
	`"personal":{"_id":"p","name":"Jane","job_title":"Dev"},"education":[{"_id":"e","degree":"BSc","start_date":"2015","end_date":"2019"}],` +
	`"createdAt":"2024-01-01T00:00:00Z"}`

func TestReadDocuments_Array(t *testing.T) {
	docs, err := ReadDocuments(strings.NewReader("\n [" + exported + "," + `{"clerkId":"user_2","username":"bob"}` + "]"))
	require.NoError(t, err)
	require.Len(t, docs, 2)

	d := docs[0]
	assert.Equal(t, 1, d.Line)
	assert.Equal(t, "user_1", d.OwnerID)
	assert.Equal(t, "jane", d.Username)
	assert.True(t, d.IsPrivate)
	assert.NotContains(t, d.Fields, "_id")
	assert.NotContains(t, d.Fields, "clerkId")
	assert.NotContains(t, d.Fields, "createdAt")
	assert.Equal(t, map[string]any{"name": "Jane", "job_title": "Dev"}, d.Fields["personal"])
	assert.Equal(t, 1.0, d.Fields["template"])

	assert.Equal(t, "user_2", docs[1].OwnerID)
	assert.False(t, docs[1].IsPrivate)
}

func TestReadDocuments_NDJSON(t *testing.T) {
	input := exported + "\n" + `{"clerkId":"user_2","username":"bob"}` + "\n"
	docs, err := ReadDocuments(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, 2, docs[1].Line)
	assert.Equal(t, "bob", docs[1].Username)
}

func TestReadDocuments_Empty(t *testing.T) {
	docs, err := ReadDocuments(strings.NewReader("  \n"))
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestReadDocuments_Malformed(t *testing.T) {
	_, err := ReadDocuments(strings.NewReader(`{"clerkId":"user_1"}` + "\n{oops"))
	assert.Error(t, err)
}
