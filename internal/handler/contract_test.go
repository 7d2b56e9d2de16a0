package handler_test

import (
	"net/http"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"
)

func compileSchema(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	schemaPath, err := filepath.Abs(filepath.Join("testdata", name))
	require.NoError(t, err)

	schema, err := jsonschema.NewCompiler().Compile("file://" + filepath.ToSlash(schemaPath))
	require.NoError(t, err)
	return schema
}

func TestCourseListContract(t *testing.T) {
	schema := compileSchema(t, "course_list.schema.json")
	app := newTestApp(t)
	admin := app.login(t, adminUsername, adminPassword)

	resp := app.do(t, http.MethodGet, "/api/v1/courses", nil, admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, schema.Validate(decodeRaw(t, resp)))
}

func TestStudentCoursesContract(t *testing.T) {
	schema := compileSchema(t, "student_courses.schema.json")
	app := newTestApp(t)
	student := app.login(t, studentUsername, studentPassword)

	resp := app.do(t, http.MethodGet, "/student/courses/3/add", nil, student)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	resp = app.do(t, http.MethodGet, "/student/courses", nil, student)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, schema.Validate(decodeRaw(t, resp)))
}

func TestCourseValidationContract(t *testing.T) {
	schema := compileSchema(t, "validation_error.schema.json")
	app := newTestApp(t)
	admin := app.login(t, adminUsername, adminPassword)

	resp := app.do(t, http.MethodPost, "/admin/add-course", url.Values{"code": {"short"}}, admin)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NoError(t, schema.Validate(decodeRaw(t, resp)))
}
