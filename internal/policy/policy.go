// Package policy renders IAM policy documents from embedded templates.
//
// Placeholders are delimiter-qualified (${name}) so a key that is a substring
// of another key can never collide during substitution.
package policy

import (
	"embed"
	"encoding/json"
	"fmt"
	"io"

	"github.com/valyala/fasttemplate"
)

const (
	startTag = "${"
	endTag   = "}"
)

// Placeholder names understood by the embedded templates.
const (
	KeyAccountID              = "accountId"
	KeyAccountARN             = "accountArn"
	KeyRegion                 = "region"
	KeyPartition              = "partition"
	KeyWorkspaceID            = "workspaceId"
	KeyWorkspaceS3BucketARN   = "workspaceS3BucketArn"
	KeyWorkspaceARN           = "workspaceArn"
	KeyDashboardRoleAssumedBy = "dashboardRoleAssumedByArn"
	KeyBucketARN              = "bucketArn"
)

// Template names, relative to the embedded templates directory.
const (
	WorkspaceRoleAssume      = "workspace_role_assume.json"
	WorkspaceRolePermissions = "workspace_role_permissions.json"
	DashboardRoleAssume      = "dashboard_role_assume.json"
	DashboardRolePermissions = "dashboard_role_permissions.json"
	BucketSecureTransport    = "bucket_secure_transport.json"
)

//go:embed templates/*.json
var templates embed.FS

// Params accumulates substitution values while prerequisite resources are
// created. A Params value is never modified in place; With returns a copy.
type Params map[string]string

// With returns a copy of p with key set to value.
func (p Params) With(key, value string) Params {
	out := make(Params, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	out[key] = value
	return out
}

// Render replaces every ${key} in tmpl with params[key]. Unknown placeholders
// are left verbatim.
func Render(tmpl string, params Params) string {
	return fasttemplate.ExecuteFuncString(tmpl, startTag, endTag, func(w io.Writer, tag string) (int, error) {
		if v, ok := params[tag]; ok {
			return w.Write([]byte(v))
		}
		return w.Write([]byte(startTag + tag + endTag))
	})
}

// Load returns the raw text of an embedded template.
func Load(name string) (string, error) {
	data, err := templates.ReadFile("templates/" + name)
	if err != nil {
		return "", fmt.Errorf("loading policy template %s: %w", name, err)
	}
	return string(data), nil
}

// Document loads the named template, renders it with params and checks the
// result is valid JSON.
func Document(name string, params Params) (string, error) {
	tmpl, err := Load(name)
	if err != nil {
		return "", err
	}
	doc := Render(tmpl, params)
	if !json.Valid([]byte(doc)) {
		return "", fmt.Errorf("rendered policy %s is not valid JSON", name)
	}
	return doc, nil
}
