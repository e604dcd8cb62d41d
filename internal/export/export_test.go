package export

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/coursecraft/internal/content"
	"github.com/jonathan/coursecraft/internal/db"
	"github.com/jonathan/coursecraft/internal/pipeline"
	"github.com/jonathan/coursecraft/internal/quality"
)

func testSession() *db.Session {
	return &db.Session{
		ID:         uuid.New(),
		ClientName: "Acme",
		Industry:   "Retail",
		Status:     db.SessionCompleted,
		Route:      "A",
	}
}

func testBatch() *pipeline.BatchResult {
	return &pipeline.BatchResult{
		JobID:     uuid.New(),
		Generated: 1,
		Failed:    0,
		Units: []pipeline.UnitResult{
			{
				Index: 0,
				Topic: content.Topic{Topic: "Handling returns", AudienceLevel: "beginner", Objective: "process returns"},
				Score: 84,
				Artifacts: []quality.Result{
					{
						Artifact: content.NewArticle(&content.Article{Title: "Handling Returns", Body: "body"}),
						Score:    88,
						Pass:     true,
					},
					{
						Artifact: content.NewQuiz(&content.Quiz{Title: "Returns Quiz", Questions: []content.Question{{Prompt: "q", Choices: []string{"a", "b"}}}}),
						Score:    80,
						Pass:     true,
						Repaired: true,
					},
				},
			},
		},
	}
}

func TestBuildAndMarshal_ValidDocument(t *testing.T) {
	doc, err := Build(testSession(), testBatch())
	require.NoError(t, err)
	require.Len(t, doc.Units, 1)
	assert.Equal(t, "Handling returns", doc.Units[0].Topic)
	require.Len(t, doc.Units[0].Artifacts, 2)
	assert.True(t, doc.Units[0].Artifacts[1].Repaired)

	data, err := Marshal(doc)
	require.NoError(t, err)

	// The export is lossless: the full typed payload round-trips
	var decoded Document
	require.NoError(t, json.Unmarshal(data, &decoded))
	var article content.Article
	require.NoError(t, json.Unmarshal(decoded.Units[0].Artifacts[0].Content, &article))
	assert.Equal(t, "Handling Returns", article.Title)
	assert.Equal(t, "body", article.Body)
}

func TestBuild_UnitIDsAreStable(t *testing.T) {
	session := testSession()
	doc, err := Build(session, testBatch())
	require.NoError(t, err)
	assert.Equal(t, session.ID.String()+"-unit-1", doc.Units[0].ID)
}

func TestBuild_EmptyBatchRejected(t *testing.T) {
	_, err := Build(testSession(), &pipeline.BatchResult{})
	assert.Error(t, err)
}

func TestMarshal_SchemaRejectsOutOfRangeScore(t *testing.T) {
	batch := testBatch()
	batch.Units[0].Artifacts[0].Score = 140

	doc, err := Build(testSession(), batch)
	require.NoError(t, err)

	_, err = Marshal(doc)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.NotEmpty(t, validationErr.Errors)
}

func TestValidate_RejectsMissingFields(t *testing.T) {
	err := Validate([]byte(`{"session_id": "not-even-close"}`))
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestValidate_RejectsUnknownRoute(t *testing.T) {
	doc, err := Build(testSession(), testBatch())
	require.NoError(t, err)
	doc.Route = "C"

	_, err = Marshal(doc)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
}
