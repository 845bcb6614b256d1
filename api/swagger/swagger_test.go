package swagger

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestRegisteredDocDescribesRecordRoutes(t *testing.T) {
	raw, err := swag.ReadDoc()
	require.NoError(t, err)

	var doc struct {
		Swagger     string                            `json:"swagger"`
		BasePath    string                            `json:"basePath"`
		Paths       map[string]map[string]interface{} `json:"paths"`
		Definitions map[string]interface{}            `json:"definitions"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	assert.Equal(t, "2.0", doc.Swagger)
	assert.Equal(t, "/api/v1", doc.BasePath)

	routes := map[string]string{
		"/students":                             "post",
		"/students/{id}/transcript":             "get",
		"/courses/search":                       "get",
		"/enrollments":                          "post",
		"/grades":                               "put",
		"/reports/top-students":                 "get",
		"/exchange/import/{entity}":             "post",
		"/exports":                              "post",
		"/export/{token}":                       "get",
		"/backups":                              "post",
		"/instructors/{id}/courses":             "post",
		"/enrollments/{studentId}/{courseCode}": "delete",
	}
	for path, method := range routes {
		ops, ok := doc.Paths[path]
		if assert.True(t, ok, path) {
			assert.Contains(t, ops, method, path)
		}
	}
	for _, name := range []string{"CreateStudentRequest", "EnrollRequest", "AssignGradeRequest", "ExportRequest", "ResponseEnvelope"} {
		assert.Contains(t, doc.Definitions, name)
	}
}
