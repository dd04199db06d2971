package normalize

import (
	"sort"

	"github.com/sourceplane/datachain/internal/model"
)

// Built-in step kinds
const (
	KindDownloadURLToFile model.Kind = "download_url_to_file"
	KindUploadFileToS3    model.Kind = "upload_file_to_s3"
	KindUploadFileToSQL   model.Kind = "upload_file_to_sql"
	KindCreateGlueCrawler model.Kind = "create_glue_crawler"
	KindRunAthenaQuery    model.Kind = "run_athena_query"
	KindRunSQLQuery       model.Kind = "run_sql_query"
)

// KindSpec describes how a step kind's params map onto assets. Input and
// output params name assets the step consumes or produces; reference params
// name pre-existing assets (buckets, roles, connections) that must be
// declared but are never produced by a step.
type KindSpec struct {
	Kind         model.Kind
	Description  string
	Required     []string
	InputParams  []string
	OutputParams []string
	RefParams    []string
}

var catalog = map[model.Kind]KindSpec{
	KindDownloadURLToFile: {
		Kind:         KindDownloadURLToFile,
		Description:  "Download a URL into a local file",
		Required:     []string{"url", "file"},
		OutputParams: []string{"file"},
	},
	KindUploadFileToS3: {
		Kind:         KindUploadFileToS3,
		Description:  "Upload a local file to an S3 object",
		Required:     []string{"file", "s3_object"},
		InputParams:  []string{"file"},
		OutputParams: []string{"s3_object"},
		RefParams:    []string{"bucket"},
	},
	KindUploadFileToSQL: {
		Kind:         KindUploadFileToSQL,
		Description:  "Load a local file into a SQL table",
		Required:     []string{"file", "sql_table"},
		InputParams:  []string{"file"},
		OutputParams: []string{"sql_table"},
		RefParams:    []string{"connection"},
	},
	KindCreateGlueCrawler: {
		Kind:         KindCreateGlueCrawler,
		Description:  "Create and start a Glue crawler that catalogs S3 data into a table",
		Required:     []string{"s3_object", "table"},
		InputParams:  []string{"s3_object"},
		OutputParams: []string{"table"},
		RefParams:    []string{"iam_role", "crawler"},
	},
	KindRunAthenaQuery: {
		Kind:         KindRunAthenaQuery,
		Description:  "Run an Athena query against a cataloged table",
		Required:     []string{"table"},
		InputParams:  []string{"table"},
		OutputParams: []string{"result"},
		RefParams:    []string{"query"},
	},
	KindRunSQLQuery: {
		Kind:         KindRunSQLQuery,
		Description:  "Run a SQL query against a loaded table",
		Required:     []string{"sql_table"},
		InputParams:  []string{"sql_table"},
		OutputParams: []string{"result"},
		RefParams:    []string{"connection", "query"},
	},
}

// LookupKind returns the catalog entry for kind
func LookupKind(kind model.Kind) (KindSpec, bool) {
	spec, ok := catalog[kind]
	return spec, ok
}

// Kinds returns the catalog sorted by kind
func Kinds() []KindSpec {
	out := make([]KindSpec, 0, len(catalog))
	for _, spec := range catalog {
		out = append(out, spec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}
